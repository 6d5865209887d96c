// Package audio provides the audio production module: uploads, approvals,
// pipeline stage and release-gated downloads.
package audio

import (
	"minimusiker_backend/internal/audio/handler"
	"minimusiker_backend/internal/audio/repository"
	"minimusiker_backend/internal/audio/service"
	apphttp "minimusiker_backend/internal/http"
	"minimusiker_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the audio domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new audio module with all dependencies wired. The
// service subscribes to roster and deal changes on the bus.
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
	return "audio"
}

// RegisterRoutes registers the audio routes in every role namespace
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/events"))
	m.handler.RegisterProductionRoutes(ctx.Staff.Group("/events"))
	m.handler.RegisterProductionRoutes(ctx.Engineer.Group("/events"))
	m.handler.RegisterTeacherRoutes(ctx.Teacher.Group("/events"))
	m.handler.RegisterParentRoutes(ctx.Parent.Group("/events"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
