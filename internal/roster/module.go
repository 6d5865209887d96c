// Package roster provides the class, choir group and song management module.
package roster

import (
	"minimusiker_backend/internal/events"
	apphttp "minimusiker_backend/internal/http"
	"minimusiker_backend/internal/roster/handler"
	"minimusiker_backend/internal/roster/repository"
	"minimusiker_backend/internal/roster/service"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/logger"
	"minimusiker_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the roster domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new roster module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, resolver eventref.Resolver, access eventref.Access, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, resolver, access, bus, log)

	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "roster"
}

// RegisterRoutes mounts the roster under /events in every role namespace
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterManageRoutes(ctx.Admin.Group("/events"))
	m.handler.RegisterManageRoutes(ctx.Teacher.Group("/events"))
	m.handler.RegisterReadRoutes(ctx.Staff.Group("/events"))
	m.handler.RegisterReadRoutes(ctx.Engineer.Group("/events"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
