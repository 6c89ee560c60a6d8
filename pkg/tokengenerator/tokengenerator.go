package tokengenerator

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenGenerator signs and verifies bearer tokens carrying a user id.
type TokenGenerator interface {
	// GenerateToken generates a signed token for the given user id and expiry
	GenerateToken(userID int64, expiry time.Duration) (string, time.Time, error)

	// ParseToken parses and validates a token, returning the user id it carries
	ParseToken(tokenStr string) (int64, error)
}

// JwtTokenGenerator implements TokenGenerator with HS256 and a
// process-wide secret injected at construction.
type JwtTokenGenerator struct {
	Secret   string
	Issuer   string
	Audience string
}

// NewJwtTokenGenerator creates a new JwtTokenGenerator.
func NewJwtTokenGenerator(secret, issuer, audience string) *JwtTokenGenerator {
	return &JwtTokenGenerator{
		Secret:   secret,
		Issuer:   issuer,
		Audience: audience,
	}
}

// GenerateToken creates a signed token whose subject is the decimal user id.
func (g *JwtTokenGenerator) GenerateToken(userID int64, expiry time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Minute)),
		Issuer:    g.Issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.New().String(),
		Audience:  jwt.ClaimStrings{g.Audience},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(g.Secret))
	if err != nil {
		slog.Error("Failed to sign JWT claim string", "err", err)
		return "", time.Time{}, err
	}
	return ss, claims.ExpiresAt.Time, nil
}

// ParseToken parses and validates a token string, returning the user id.
func (g *JwtTokenGenerator) ParseToken(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(g.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("failed to read token subject: %w", err)
	}
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token subject is not a user id: %w", err)
	}
	return userID, nil
}
