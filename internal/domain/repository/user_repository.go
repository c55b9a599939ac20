package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-session-auth/internal/domain/entity"
)

var (
	// ErrNotFound is returned by lookups that match no user.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by Create when the email is already taken.
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository defines the interface for user-related database operations.
// Every lookup is unique-or-absent. Mutations touch a single column group of
// a single row so concurrent writers to different fields never clobber each other.
type UserRepository interface {
	Create(ctx context.Context, email, hashedPassword string) (*entity.User, error)

	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetBySessionID(ctx context.Context, sessionID string) (*entity.User, error)
	GetByResetToken(ctx context.Context, token string) (*entity.User, error)

	// UpdateSessionID sets (or clears, when nil) the session id of a user.
	UpdateSessionID(ctx context.Context, id int64, sessionID *string) error
	// UpdateResetToken sets (or clears, when nil) the reset token of a user.
	UpdateResetToken(ctx context.Context, id int64, token *string) error
	// ConsumeResetToken replaces the password hash of the user holding token
	// and clears the token in the same statement. ErrNotFound when no user holds it.
	ConsumeResetToken(ctx context.Context, token, hashedPassword string) (*entity.User, error)
}

// UserLister is implemented by stores that can enumerate every user.
type UserLister interface {
	ListAll(ctx context.Context) ([]*entity.User, error)
}
