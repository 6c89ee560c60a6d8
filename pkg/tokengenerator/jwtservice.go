package tokengenerator

import (
	"net/http"
	"time"
)

// Cookie names used for the session transport.
const (
	AccessTokenName  = "accessToken"
	RefreshTokenName = "refreshToken"
)

// Default token expiry durations. Cookie max-age follows token expiry.
const (
	DefaultAccessTokenExpiry  = 1 * time.Hour
	DefaultRefreshTokenExpiry = 30 * 24 * time.Hour
)

// TokenPair is an access/refresh token pair issued for one user.
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	AccessExpiry  time.Time
	RefreshExpiry time.Time
}

// TokenService composes token generation and cookie management for the
// session lifecycle.
type TokenService struct {
	generator     TokenGenerator
	cookieSetter  CookieSetter
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// TokenServiceOption is a function that configures a TokenService.
type TokenServiceOption func(*TokenService)

// WithAccessTokenExpiry sets the access token expiry duration.
func WithAccessTokenExpiry(expiry time.Duration) TokenServiceOption {
	return func(ts *TokenService) {
		ts.accessExpiry = expiry
	}
}

// WithRefreshTokenExpiry sets the refresh token expiry duration.
func WithRefreshTokenExpiry(expiry time.Duration) TokenServiceOption {
	return func(ts *TokenService) {
		ts.refreshExpiry = expiry
	}
}

// WithCookieSetter sets the cookie setter used for both session cookies.
func WithCookieSetter(cs CookieSetter) TokenServiceOption {
	return func(ts *TokenService) {
		ts.cookieSetter = cs
	}
}

// NewTokenService creates a new TokenService.
func NewTokenService(generator TokenGenerator, options ...TokenServiceOption) *TokenService {
	ts := &TokenService{
		generator:     generator,
		cookieSetter:  NewCookieSetter(true, true, ""),
		accessExpiry:  DefaultAccessTokenExpiry,
		refreshExpiry: DefaultRefreshTokenExpiry,
	}

	for _, option := range options {
		option(ts)
	}

	return ts
}

// IssueTokens produces a signed access/refresh pair for the user.
func (ts *TokenService) IssueTokens(userID int64) (TokenPair, error) {
	accessToken, accessExpiry, err := ts.generator.GenerateToken(userID, ts.accessExpiry)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, refreshExpiry, err := ts.generator.GenerateToken(userID, ts.refreshExpiry)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// ParseToken verifies a token and returns the user id it asserts.
func (ts *TokenService) ParseToken(tokenStr string) (int64, error) {
	return ts.generator.ParseToken(tokenStr)
}

// SetTokenCookies sets both session cookies from an issued pair.
func (ts *TokenService) SetTokenCookies(w http.ResponseWriter, pair TokenPair) error {
	if err := ts.cookieSetter.SetCookie(w, AccessTokenName, pair.AccessToken, pair.AccessExpiry); err != nil {
		return err
	}
	return ts.cookieSetter.SetCookie(w, RefreshTokenName, pair.RefreshToken, pair.RefreshExpiry)
}

// ClearTokenCookies clears both session cookies unconditionally.
func (ts *TokenService) ClearTokenCookies(w http.ResponseWriter) {
	_ = ts.cookieSetter.ClearCookie(w, AccessTokenName)
	_ = ts.cookieSetter.ClearCookie(w, RefreshTokenName)
}

// IssueAndSetCookies is a convenience that issues a pair and binds it to
// the response in one step.
func (ts *TokenService) IssueAndSetCookies(w http.ResponseWriter, userID int64) (TokenPair, error) {
	pair, err := ts.IssueTokens(userID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := ts.SetTokenCookies(w, pair); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}
