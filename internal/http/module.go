// Package http holds the pieces cmd/api assembles into the gin server.
package http

import (
	"eclipse_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module is a feature package that mounts its own routes (pipeline, clients).
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the route groups modules mount on.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1, unauthenticated.
	V1 *gin.RouterGroup
	// Protected is /api/v1 behind bearer-token auth with a tenant claim.
	Protected      *gin.RouterGroup
	Config         config.JWTConfig
	AuthMiddleware gin.HandlerFunc
}
