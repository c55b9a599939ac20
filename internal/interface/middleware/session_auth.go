package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-session-auth/internal/domain/entity"
)

// SessionResolver maps a session id to its user; nil when no user holds it.
type SessionResolver interface {
	GetUserFromSessionID(ctx context.Context, sessionID string) (*entity.User, error)
}

// SessionAuth authenticates requests by their session cookie.
type SessionAuth struct {
	Sessions    SessionResolver
	SessionName string
}

func NewSessionAuth(sessions SessionResolver, sessionName string) *SessionAuth {
	return &SessionAuth{Sessions: sessions, SessionName: sessionName}
}

func (a *SessionAuth) CurrentUser(c *gin.Context) (*entity.User, error) {
	return a.Sessions.GetUserFromSessionID(c.Request.Context(), SessionCookie(c, a.SessionName))
}
