package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-session-auth/internal/interface/http"
)

// APIModule serves /api/v1; authentication is applied by the registry.
type APIModule struct {
	Handler *handlers.AuthHandler
}

func NewAPIModule(h *handlers.AuthHandler) *APIModule {
	return &APIModule{Handler: h}
}

func (m *APIModule) Register(rg *gin.RouterGroup) {
	rg.GET("/status", m.Handler.Status)
	rg.GET("/users/me", m.Handler.Me)
}
