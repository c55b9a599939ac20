package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-session-auth/internal/domain/entity"
	"github.com/oksasatya/go-session-auth/pkg/response"
)

// CurrentUserKey is the gin context key holding the authenticated *entity.User.
const CurrentUserKey = "current_user"

// Authenticator resolves the user behind a request. A nil user with a nil
// error means the request carries no acceptable credentials.
type Authenticator interface {
	CurrentUser(c *gin.Context) (*entity.User, error)
}

// NoAuth never recognises anyone; every guarded route answers 403.
type NoAuth struct{}

func (NoAuth) CurrentUser(*gin.Context) (*entity.User, error) { return nil, nil }

// RequireAuth reports whether path needs authentication. Excluded entries are
// compared with a trailing slash; an entry ending in "*" excludes every path
// with that prefix.
func RequireAuth(path string, excluded []string) bool {
	if path == "" || len(excluded) == 0 {
		return true
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	for _, p := range excluded {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return false
			}
			continue
		}
		if !strings.HasSuffix(p, "/") {
			p += "/"
		}
		if path == p {
			return false
		}
	}
	return true
}

// AuthorizationHeader returns the raw Authorization header, or "".
func AuthorizationHeader(c *gin.Context) string {
	return c.GetHeader("Authorization")
}

// SessionCookie returns the value of the session cookie called name, or "".
func SessionCookie(c *gin.Context, name string) string {
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}

// Authenticate guards every route not listed in excluded. Requests without an
// Authorization header or session cookie get 401; requests whose credentials
// resolve to nobody get 403.
func Authenticate(a Authenticator, excluded []string, sessionName string, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !RequireAuth(c.Request.URL.Path, excluded) {
			c.Next()
			return
		}
		if AuthorizationHeader(c) == "" && SessionCookie(c, sessionName) == "" {
			response.Error(c, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		u, err := a.CurrentUser(c)
		if err != nil {
			logger.WithError(err).Error("authenticate request")
			response.Error(c, http.StatusInternalServerError, "internal error", nil)
			return
		}
		if u == nil {
			response.Error(c, http.StatusForbidden, "Forbidden", nil)
			return
		}
		c.Set(CurrentUserKey, u)
		c.Next()
	}
}

// CurrentUser returns the user stored by Authenticate, if any.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok && u != nil
}
