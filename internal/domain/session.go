package domain

import "time"

// Session is a server-held record proving a principal authenticated with
// a given role. The opaque ID is the only thing handed to the caller.
type Session struct {
	ID             string    `json:"session_id"`
	Role           Role      `json:"role"`
	PrincipalID    int64     `json:"principal_id"`
	IssuedAt       time.Time `json:"issued_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastActivityAt time.Time `json:"last_activity_at"`

	// ExpiryWarned marks that the expiry warning was delivered for the
	// current window. Extending the session clears it.
	ExpiryWarned bool `json:"-"`
}

// Valid reports whether the session has not yet expired.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
