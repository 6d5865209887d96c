// Package service implements the audio production workflow: two-phase
// uploads, approvals, stage recomputation and release-gated downloads.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/adapters/storage"
	"minimusiker_backend/internal/audio/repository"
	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/shared/choir"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/httpkit"
	"minimusiker_backend/platform/logger"
	"minimusiker_backend/platform/metrics"
)

const defaultDownloadTTL = time.Hour

// Roster answers which classes and groups exist and which of them sing.
type Roster interface {
	SongTargets(ctx context.Context, eventID uuid.UUID) ([]choir.Target, error)
	HasTarget(ctx context.Context, eventID uuid.UUID, target choir.Target) (bool, error)
}

// StageCache stores the recomputed stage on the event row for list views.
type StageCache interface {
	UpdatePipelineCache(ctx context.Context, eventID uuid.UUID, stage, adminStatus string, allApproved bool, releasedAt *time.Time) error
}

// Service provides business logic for audio files
type Service struct {
	repo        repository.AudioRepository
	resolver    eventref.Resolver
	access      eventref.Access
	roster      Roster
	stageCache  StageCache
	store       storage.ObjectStore
	bus         events.Bus
	metrics     *metrics.Registry
	log         *logger.Logger
	downloadTTL time.Duration
	now         func() time.Time
}

// Options carries the collaborators of the service.
type Options struct {
	Resolver    eventref.Resolver
	Access      eventref.Access
	Roster      Roster
	StageCache  StageCache
	Store       storage.ObjectStore
	Bus         events.Bus
	Metrics     *metrics.Registry
	Logger      *logger.Logger
	DownloadTTL time.Duration
}

// New creates a new audio service
func New(repo repository.AudioRepository, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	ttl := opts.DownloadTTL
	if ttl <= 0 {
		ttl = defaultDownloadTTL
	}
	return &Service{
		repo:        repo,
		resolver:    opts.Resolver,
		access:      opts.Access,
		roster:      opts.Roster,
		stageCache:  opts.StageCache,
		store:       opts.Store,
		bus:         opts.Bus,
		metrics:     opts.Metrics,
		log:         log,
		downloadTTL: ttl,
		now:         time.Now,
	}
}

func (s *Service) event(ctx context.Context, ref string, id httpkit.Identity) (*eventref.Event, error) {
	ev, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := eventref.Authorize(ctx, s.access, ev, id); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *Service) writableEvent(ctx context.Context, ref string, id httpkit.Identity) (*eventref.Event, error) {
	ev, err := s.event(ctx, ref, id)
	if err != nil {
		return nil, err
	}
	if ev.Status == eventref.StatusCancelled {
		return nil, apperr.Conflict("event is cancelled")
	}
	return ev, nil
}

// fileOf loads a file and checks that it belongs to the event.
func (s *Service) fileOf(ctx context.Context, eventID, fileID uuid.UUID) (repository.AudioFile, error) {
	f, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return repository.AudioFile{}, err
	}
	if f.EventID != eventID {
		return repository.AudioFile{}, apperr.NotFound("audio file not found")
	}
	return f, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}
