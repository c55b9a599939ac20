package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/go-session-auth/internal/interface/http"
	"github.com/oksasatya/go-session-auth/internal/interface/middleware"
)

// Limits are requests per minute per client IP; zero disables a limit.
type Limits struct {
	LoginPerMin   int
	ResetPerMin   int
	BypassPrivate bool
}

// SessionModule serves the cookie-session routes at the site root.
type SessionModule struct {
	Handler *handlers.AuthHandler
	Redis   *redis.Client
	Limits  Limits
	Logger  *logrus.Logger
}

func NewSessionModule(h *handlers.AuthHandler, rdb *redis.Client, limits Limits, logger *logrus.Logger) *SessionModule {
	return &SessionModule{Handler: h, Redis: rdb, Limits: limits, Logger: logger}
}

func (m *SessionModule) limit(perMin int) gin.HandlerFunc {
	var allow middleware.AllowFunc
	if m.Limits.BypassPrivate {
		allow = middleware.AllowPrivateIP()
	}
	return middleware.RateLimit(m.Redis, perMin, time.Minute, middleware.KeyByIPAndRoute(), allow, m.Logger)
}

func (m *SessionModule) Register(rg *gin.RouterGroup) {
	loginLimiter := m.limit(m.Limits.LoginPerMin)
	resetLimiter := m.limit(m.Limits.ResetPerMin)

	rg.GET("/", m.Handler.Index)
	rg.POST("/users", m.Handler.Register)
	rg.POST("/sessions", loginLimiter, m.Handler.Login)
	rg.DELETE("/sessions", m.Handler.Logout)
	rg.GET("/profile", m.Handler.Profile)
	rg.POST("/reset_password", resetLimiter, m.Handler.ResetToken)
	rg.PUT("/reset_password", resetLimiter, m.Handler.UpdatePassword)
}
