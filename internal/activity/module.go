// Package activity records an event's history from domain events through a
// bounded, non-blocking queue.
package activity

import (
	"context"

	"minimusiker_backend/internal/events"
	apphttp "minimusiker_backend/internal/http"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the activity log module implementing http.Module.
type Module struct {
	handler  *Handler
	Recorder *Recorder
}

// NewModule creates the module and subscribes the recorder on the bus.
func NewModule(pool *pgxpool.Pool, resolver eventref.Resolver, bus events.Bus, queueSize int, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	recorder := NewRecorder(repo, queueSize, log)
	recorder.Subscribe(bus)
	return &Module{
		handler:  NewHandler(repo, resolver),
		Recorder: recorder,
	}
}

// Start runs the background writer until ctx is done.
func (m *Module) Start(ctx context.Context) { m.Recorder.Start(ctx) }

// Wait blocks until queued entries were written.
// Call this during graceful server shutdown.
func (m *Module) Wait() { m.Recorder.Wait() }

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activity"
}

// RegisterRoutes mounts the admin history route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.Group("/events").GET("/:ref/activity", m.handler.List)
}

var _ apphttp.Module = (*Module)(nil)
