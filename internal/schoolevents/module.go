// Package schoolevents provides the school events domain module: booking
// intake, event administration, the identifier resolver and portal views.
package schoolevents

import (
	apphttp "minimusiker_backend/internal/http"
	"minimusiker_backend/internal/schoolevents/handler"
	"minimusiker_backend/internal/schoolevents/repository"
	"minimusiker_backend/internal/schoolevents/service"
	"minimusiker_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the school events domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new school events module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, opts service.Options, webhookSecret string) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, opts)
	h := handler.New(svc, val, webhookSecret)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "schoolevents"
}

// RegisterRoutes registers the module's routes in every role namespace
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/events"))
	m.handler.RegisterTeacherRoutes(ctx.Teacher.Group("/events"))
	m.handler.RegisterParentRoutes(ctx.Parent.Group("/events"))
	m.handler.RegisterWebhookRoutes(ctx.Webhooks)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
