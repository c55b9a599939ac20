package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-session-auth/config"
	"github.com/oksasatya/go-session-auth/internal/application"
	handlers "github.com/oksasatya/go-session-auth/internal/interface/http"
	"github.com/oksasatya/go-session-auth/internal/interface/middleware"
	"github.com/oksasatya/go-session-auth/internal/router/modules"
	"github.com/oksasatya/go-session-auth/pkg/helpers"
)

// Deps is everything the HTTP layer needs. Redis and Publisher may be nil.
type Deps struct {
	Cfg       *config.Config
	Logger    *logrus.Logger
	Redis     *redis.Client
	Auth      *application.AuthService
	Users     middleware.UserFinder
	Hasher    application.PasswordHasher
	Publisher handlers.Publisher
}

// NewAuthenticator picks the /api/v1 authenticator for authType. A nil result
// leaves /api/v1 unguarded.
func NewAuthenticator(authType string, d Deps) (middleware.Authenticator, error) {
	switch authType {
	case "session_auth":
		return middleware.NewSessionAuth(d.Auth, d.Cfg.SessionName), nil
	case "basic_auth":
		return middleware.NewBasicAuth(d.Users, d.Hasher), nil
	case "auth":
		return middleware.NoAuth{}, nil
	case "", "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown AUTH_TYPE %q", authType)
}

// NewEngine builds the gin engine with global middleware and every module.
func NewEngine(d Deps) (*gin.Engine, error) {
	authenticator, err := NewAuthenticator(d.Cfg.AuthType, d)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	// forwarding headers count only from these; none by default
	if err := r.SetTrustedProxies(d.Cfg.TrustedProxyList()); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	if origins := d.Cfg.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if d.Cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(d.Logger))
	}

	mail := handlers.MailOptions{
		AppName:          d.Cfg.AppName,
		CompanyName:      d.Cfg.CompanyName,
		ResetPasswordURL: d.Cfg.ResetPasswordURL,
	}
	if d.Cfg.MailSendEnabled {
		mail.Pub = d.Publisher
	}
	h := handlers.NewAuthHandler(
		d.Auth,
		helpers.NewCookie(d.Cfg.SessionName, d.Cfg.CookieDomain, d.Cfg.CookieSecure),
		mail,
		d.Logger,
	)

	reg := NewRegistry(r)
	reg.Add(modules.NewSessionModule(h, d.Redis, modules.Limits{
		LoginPerMin:   d.Cfg.RateLimitLoginPerMin,
		ResetPerMin:   d.Cfg.RateLimitResetPerMin,
		BypassPrivate: d.Cfg.RateLimitBypassPrivate,
	}, d.Logger))
	if authenticator != nil {
		reg.Use(middleware.Authenticate(authenticator, d.Cfg.ExcludedPaths(), d.Cfg.SessionName, d.Logger))
	}
	reg.AddAPI(modules.NewAPIModule(h))
	if d.Cfg.DebugMetricsEnabled {
		reg.AddAPI(modules.NewDebugModule())
	}
	reg.RegisterAll()
	return r, nil
}
