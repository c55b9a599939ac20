package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-session-auth/internal/domain/entity"
	repo "github.com/oksasatya/go-session-auth/internal/domain/repository"
)

var (
	ErrAlreadyExists     = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidResetToken = errors.New("invalid reset token")
)

// PasswordHasher hashes with a fresh salt on every call and verifies in constant time.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

// TokenGenerator issues unguessable opaque tokens.
type TokenGenerator interface {
	NewToken() (string, error)
}

// AuthService owns registration, credential checks and the session and
// password-reset token lifecycles. It keeps no state of its own.
type AuthService struct {
	Repo   repo.UserRepository
	Hasher PasswordHasher
	Tokens TokenGenerator
	Logger *logrus.Logger
}

func NewAuthService(r repo.UserRepository, hasher PasswordHasher, tokens TokenGenerator, logger *logrus.Logger) *AuthService {
	if logger == nil {
		logger = logrus.New()
	}
	return &AuthService{Repo: r, Hasher: hasher, Tokens: tokens, Logger: logger}
}

// RegisterUser creates a user for email. The email is checked before any
// hashing happens; ErrAlreadyExists when it is taken.
func (s *AuthService) RegisterUser(ctx context.Context, email, password string) (*entity.User, error) {
	_, err := s.Repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrAlreadyExists
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.Repo.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.Logger.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// ValidLogin reports whether password matches the stored hash for email.
// An unknown email is a plain false.
func (s *AuthService) ValidLogin(ctx context.Context, email, password string) (bool, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup user by email: %w", err)
	}
	ok, err := s.Hasher.Verify(password, u.HashedPassword)
	if err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}
	return ok, nil
}

// CreateSession issues a new session id for the user with email, replacing
// any previous one. The bool is false when no such user exists.
func (s *AuthService) CreateSession(ctx context.Context, email string) (string, bool, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup user by email: %w", err)
	}
	sid, err := s.Tokens.NewToken()
	if err != nil {
		return "", false, fmt.Errorf("generate session id: %w", err)
	}
	if err := s.Repo.UpdateSessionID(ctx, u.ID, &sid); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store session id: %w", err)
	}
	s.Logger.WithField("user_id", u.ID).Debug("session created")
	return sid, true, nil
}

// GetUserFromSessionID returns the user holding sessionID, or nil.
func (s *AuthService) GetUserFromSessionID(ctx context.Context, sessionID string) (*entity.User, error) {
	if sessionID == "" {
		return nil, nil
	}
	u, err := s.Repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user by session id: %w", err)
	}
	return u, nil
}

// DestroySession clears the session of userID. Unknown users are ignored.
func (s *AuthService) DestroySession(ctx context.Context, userID int64) error {
	if err := s.Repo.UpdateSessionID(ctx, userID, nil); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("clear session id: %w", err)
	}
	s.Logger.WithField("user_id", userID).Debug("session destroyed")
	return nil
}

// GetResetPasswordToken issues a reset token for email, replacing any
// outstanding one. ErrUserNotFound when no user has that email.
func (s *AuthService) GetResetPasswordToken(ctx context.Context, email string) (string, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("lookup user by email: %w", err)
	}
	tok, err := s.Tokens.NewToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.Repo.UpdateResetToken(ctx, u.ID, &tok); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("store reset token: %w", err)
	}
	s.Logger.WithField("user_id", u.ID).Info("reset token issued")
	return tok, nil
}

// UpdatePassword sets a new password for the holder of resetToken and
// consumes the token. ErrInvalidResetToken for unknown or already used tokens.
func (s *AuthService) UpdatePassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return ErrInvalidResetToken
	}
	if _, err := s.Repo.GetByResetToken(ctx, resetToken); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup user by reset token: %w", err)
	}
	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	// the token may have been consumed between lookup and write
	u, err := s.Repo.ConsumeResetToken(ctx, resetToken, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}
	s.Logger.WithField("user_id", u.ID).Info("password updated")
	return nil
}
