// Package service implements booking intake, event administration and the
// identifier resolver shared by every event-scoped module.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/schoolevents/repository"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/cache"
	"minimusiker_backend/platform/logger"
)

// Service provides business logic for school events
type Service struct {
	repo       repository.EventsRepository
	cache      cache.Cache
	cacheTTL   time.Duration
	bus        events.Bus
	log        *logger.Logger
	appBaseURL string
	loc        *time.Location
	now        func() time.Time
}

// Options carries the collaborators of the service.
type Options struct {
	Cache      cache.Cache
	CacheTTL   time.Duration
	Bus        events.Bus
	Logger     *logger.Logger
	AppBaseURL string
	Location   *time.Location
}

// New creates a new school events service
func New(repo repository.EventsRepository, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	c := opts.Cache
	if c == nil {
		c = cache.NewMemoryCache()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:       repo,
		cache:      c,
		cacheTTL:   opts.CacheTTL,
		bus:        opts.Bus,
		log:        log,
		appBaseURL: opts.AppBaseURL,
		loc:        loc,
		now:        time.Now,
	}
}

var (
	_ eventref.Resolver = (*Service)(nil)
	_ eventref.Access   = (*Service)(nil)
)

// IsStaffAssigned reports whether staffID holds role on the event.
func (s *Service) IsStaffAssigned(ctx context.Context, eventID uuid.UUID, staffID, role string) (bool, error) {
	return s.repo.IsStaffAssigned(ctx, eventID, staffID, role)
}

// IsTeacher reports whether email belongs to a teacher of the event.
func (s *Service) IsTeacher(ctx context.Context, eventID uuid.UUID, email string) (bool, error) {
	return s.repo.IsTeacher(ctx, eventID, email)
}

// IsParent reports whether email registered a child for the event.
func (s *Service) IsParent(ctx context.Context, eventID uuid.UUID, email string) (bool, error) {
	return s.repo.IsParent(ctx, eventID, email)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

// today is the current calendar day in the business timezone.
func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}
