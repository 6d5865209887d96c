// Package http provides HTTP server infrastructure including the Module interface
// that all domain modules must implement for route registration.
package http

import (
	"minimusiker_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
// Every role namespace is already guarded by the session middleware for that
// role; admins pass every guard.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// API is the unauthenticated /api route group.
	API *gin.RouterGroup
	// Admin is /api/admin.
	Admin *gin.RouterGroup
	// Teacher is /api/teacher.
	Teacher *gin.RouterGroup
	// Parent is /api/parent.
	Parent *gin.RouterGroup
	// Staff is /api/staff.
	Staff *gin.RouterGroup
	// Engineer is /api/engineer.
	Engineer *gin.RouterGroup
	// Webhooks is /api/webhooks; handlers verify their own shared secret.
	Webhooks *gin.RouterGroup
	// Config is the session configuration for scoped access checks.
	Config config.SessionConfig
}
