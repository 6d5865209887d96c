// Package emailautomation provides templated email automation: template
// administration, recipient resolution, idempotent sends and the triggers
// used by the scheduler and by domain events.
package emailautomation

import (
	"minimusiker_backend/internal/emailautomation/handler"
	"minimusiker_backend/internal/emailautomation/repository"
	"minimusiker_backend/internal/emailautomation/service"
	apphttp "minimusiker_backend/internal/http"
	"minimusiker_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the email automation module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new email automation module and subscribes its
// event-driven sends on the bus.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, opts service.Options) *Module {
	svc := service.New(repository.New(pool), opts)
	if opts.Bus != nil {
		svc.Subscribe(opts.Bus)
	}
	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "emailautomation"
}

// RegisterRoutes registers the admin routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/email-automation"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
