package router

import "github.com/gin-gonic/gin"

// Registry collects modules for the site root and for /api/v1. Middlewares
// passed to Use apply to the /api/v1 group only.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
	apiModules  []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api/v1")}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

// Add registers a module on the site root.
func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// AddAPI registers a module under /api/v1.
func (r *Registry) AddAPI(mod Module) {
	r.apiModules = append(r.apiModules, mod)
}

func (r *Registry) RegisterAll() {
	for _, m := range r.modules {
		m.Register(&r.Engine.RouterGroup)
	}
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.apiModules {
		m.Register(r.API)
	}
}
