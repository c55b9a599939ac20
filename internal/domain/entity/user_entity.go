package entity

import (
	"time"
)

// User is the aggregate root for user domain
// Passwords are stored as bcrypt hashes in HashedPassword.
//
// SessionID is set while the user is logged in and ResetToken while a
// password reset is pending; each holds at most one value at a time.
type User struct {
	ID             int64
	Email          string
	HashedPassword string
	SessionID      *string
	ResetToken     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasSession reports whether the user currently holds a session id
func (u *User) HasSession() bool {
	return u.SessionID != nil && *u.SessionID != ""
}

// HasPendingReset reports whether a reset token is outstanding
func (u *User) HasPendingReset() bool {
	return u.ResetToken != nil && *u.ResetToken != ""
}
