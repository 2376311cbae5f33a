package auth

import (
	"net/http"
	"time"
)

// CookieConfig describes the cookie carrying the session id.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// DefaultCookieName is used when CookieConfig.Name is empty.
const DefaultCookieName = "sid"

func (c CookieConfig) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}

// Issue builds the cookie handing sessionID to the client.
func (c CookieConfig) Issue(sessionID string) *http.Cookie {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &http.Cookie{
		Name:     c.name(),
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Clear builds a cookie that removes the session id from the client.
func (c CookieConfig) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionID extracts the session id carried by r, if any.
func (c CookieConfig) SessionID(r *http.Request) string {
	cookie, err := r.Cookie(c.name())
	if err != nil {
		return ""
	}
	return cookie.Value
}
