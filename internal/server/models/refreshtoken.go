package models

import "time"

// RefreshToken is the server-side record of one issued refresh token.
// TokenID equals the jti claim. Records are never deleted; revocation flips
// Revoked and expiry is judged at read time.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenID   string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// Active reports whether the record can still be exchanged at now.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
