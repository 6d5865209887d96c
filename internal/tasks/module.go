// Package tasks provides the order task queue module.
package tasks

import (
	"minimusiker_backend/internal/events"
	apphttp "minimusiker_backend/internal/http"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/internal/tasks/handler"
	"minimusiker_backend/internal/tasks/repository"
	"minimusiker_backend/internal/tasks/service"
	"minimusiker_backend/platform/logger"
	"minimusiker_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the tasks module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new tasks module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, resolver eventref.Resolver, bus events.Bus, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), resolver, bus, log)
	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "tasks"
}

// RegisterRoutes registers the admin queue routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/tasks"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
