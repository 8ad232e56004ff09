package router

import "github.com/gin-gonic/gin"

// Module describes a feature module that can register its routes on a RouterGroup.
// Name is used in start-up logs.
type Module interface {
	Name() string
	Register(rg *gin.RouterGroup)
}
