package model

import "time"

// Principal is the identity snapshot captured when a session is created.
// It is not kept in sync with the user record and must not drive privilege checks.
type Principal struct {
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
}

// Session is a server-side record referenced by an opaque client-held id.
type Session struct {
	ID        string    `json:"-"`
	Principal Principal `json:"principal"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its absolute expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
