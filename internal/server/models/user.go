package models

import "time"

// User is the slice of an account the authentication core reads. The user
// management subsystem owns the row; authentication only rewrites
// PasswordHash during a password reset.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	DateJoined   time.Time
}
