package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-session-auth/internal/application"
	"github.com/oksasatya/go-session-auth/internal/domain/entity"
	"github.com/oksasatya/go-session-auth/internal/domain/repository"
)

// UserFinder is the lookup BasicAuth needs from the store.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// BasicAuth authenticates "Authorization: Basic base64(email:password)".
type BasicAuth struct {
	Users  UserFinder
	Hasher application.PasswordHasher
}

func NewBasicAuth(users UserFinder, hasher application.PasswordHasher) *BasicAuth {
	return &BasicAuth{Users: users, Hasher: hasher}
}

// ExtractBase64AuthorizationHeader returns the part after "Basic ", or "".
func ExtractBase64AuthorizationHeader(header string) string {
	v, ok := strings.CutPrefix(header, "Basic ")
	if !ok {
		return ""
	}
	return v
}

// DecodeBase64 decodes a standard base64 value into a UTF-8 string, or "".
func DecodeBase64(encoded string) string {
	if encoded == "" {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || !utf8.Valid(b) {
		return ""
	}
	return string(b)
}

// ExtractUserCredentials splits "email:password" on the first colon.
// Passwords may contain colons.
func ExtractUserCredentials(decoded string) (email, password string, ok bool) {
	return strings.Cut(decoded, ":")
}

// UserObjectFromCredentials returns the user with email when password matches.
func (a *BasicAuth) UserObjectFromCredentials(ctx context.Context, email, password string) (*entity.User, error) {
	if email == "" {
		return nil, nil
	}
	u, err := a.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	ok, err := a.Hasher.Verify(password, u.HashedPassword)
	if err != nil || !ok {
		return nil, err
	}
	return u, nil
}

func (a *BasicAuth) CurrentUser(c *gin.Context) (*entity.User, error) {
	decoded := DecodeBase64(ExtractBase64AuthorizationHeader(AuthorizationHeader(c)))
	email, password, ok := ExtractUserCredentials(decoded)
	if !ok {
		return nil, nil
	}
	return a.UserObjectFromCredentials(c.Request.Context(), email, password)
}
