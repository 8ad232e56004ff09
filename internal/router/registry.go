package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	Logger      *logrus.Logger
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine, logger *logrus.Logger) *Registry {
	api := engine.Group("/api")
	return &Registry{Engine: engine, API: api, Logger: logger}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// RegisterAll mounts every module under /api and logs the resulting route table.
func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	names := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		m.Register(r.API)
		names = append(names, m.Name())
	}
	if r.Logger != nil {
		r.Logger.WithFields(logrus.Fields{
			"modules": names,
			"routes":  len(r.Engine.Routes()),
		}).Info("routes registered")
	}
}
