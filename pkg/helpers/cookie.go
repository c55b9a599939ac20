package helpers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Manager writes the session cookie. Sessions do not expire server-side,
// so the cookie is a browser-session cookie (no Max-Age).
type Manager struct {
	Name   string
	Domain string
	Secure bool
}

func NewCookie(name, domain string, secure bool) *Manager {
	return &Manager{Name: name, Domain: domain, Secure: secure}
}

func (m *Manager) SetSession(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.Name, sessionID, 0, "/", m.Domain, m.Secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.Name, "", -1, "/", m.Domain, m.Secure, true)
}

// Session returns the session cookie value or "" when the request has none.
func (m *Manager) Session(c *gin.Context) string {
	v, err := c.Cookie(m.Name)
	if err != nil {
		return ""
	}
	return v
}
