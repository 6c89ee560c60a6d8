package tokengenerator

import (
	"net/http"
	"time"
)

// CookieSetter binds token values to HTTP via http-only cookies.
type CookieSetter interface {
	// SetCookie sets a cookie with the given value and expiry
	SetCookie(w http.ResponseWriter, tokenName, tokenValue string, expire time.Time) error

	// ClearCookie clears a cookie
	ClearCookie(w http.ResponseWriter, tokenName string) error
}

// BaseCookieSetter provides the default CookieSetter. Domain is empty in
// non-production environments so cookies stay host-scoped there.
type BaseCookieSetter struct {
	Path     string
	Domain   string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
}

// SetCookie sets a cookie with the given value and expiry.
func (c *BaseCookieSetter) SetCookie(w http.ResponseWriter, tokenName, tokenValue string, expire time.Time) error {
	cookie := &http.Cookie{
		Name:     tokenName,
		Path:     c.Path,
		Domain:   c.Domain,
		Value:    tokenValue,
		Expires:  expire,
		MaxAge:   int(time.Until(expire) / time.Second),
		HttpOnly: c.HttpOnly,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}

	http.SetCookie(w, cookie)
	return nil
}

// ClearCookie clears a cookie. Safe to call when no cookie exists.
func (c *BaseCookieSetter) ClearCookie(w http.ResponseWriter, tokenName string) error {
	cookie := &http.Cookie{
		Name:     tokenName,
		Path:     c.Path,
		Domain:   c.Domain,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: c.HttpOnly,
		Secure:   c.Secure,
	}

	http.SetCookie(w, cookie)
	return nil
}

// NewCookieSetter creates a cookie setter scoped to path "/". A non-empty
// domain restricts the cookies to that parent domain.
func NewCookieSetter(httpOnly, secure bool, domain string) CookieSetter {
	return &BaseCookieSetter{
		Path:     "/",
		Domain:   domain,
		HttpOnly: httpOnly,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
