// Package service implements class, choir group and song management for an
// event, including the album track list.
package service

import (
	"context"

	"github.com/google/uuid"

	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/roster/repository"
	"minimusiker_backend/internal/shared/choir"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/httpkit"
	"minimusiker_backend/platform/logger"
)

// Service provides business logic for the event roster
type Service struct {
	repo     repository.RosterRepository
	resolver eventref.Resolver
	access   eventref.Access
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new roster service
func New(repo repository.RosterRepository, resolver eventref.Resolver, access eventref.Access, bus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, resolver: resolver, access: access, bus: bus, log: log}
}

// event resolves ref and checks the session may act on it. Writes are
// refused on cancelled events.
func (s *Service) event(ctx context.Context, ref string, id httpkit.Identity, write bool) (*eventref.Event, error) {
	ev, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := eventref.Authorize(ctx, s.access, ev, id); err != nil {
		return nil, err
	}
	if write && ev.Status == eventref.StatusCancelled {
		return nil, apperr.Conflict("event is cancelled")
	}
	return ev, nil
}

// SongTargets returns the distinct choir targets that have at least one song.
// The audio pipeline uses them as the required coverage set.
func (s *Service) SongTargets(ctx context.Context, eventID uuid.UUID) ([]choir.Target, error) {
	songs, err := s.repo.ListSongs(ctx, eventID)
	if err != nil {
		return nil, err
	}
	seen := make(map[choir.Target]struct{}, len(songs))
	targets := make([]choir.Target, 0, len(songs))
	for _, song := range songs {
		t := choir.FromColumns(song.ClassID, song.GroupID)
		if t.IsZero() {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		targets = append(targets, t)
	}
	return targets, nil
}

// HasTarget reports whether the class or group exists on the event.
func (s *Service) HasTarget(ctx context.Context, eventID uuid.UUID, target choir.Target) (bool, error) {
	var err error
	switch target.Kind {
	case choir.KindClass:
		_, err = s.classOf(ctx, eventID, target.ID)
	case choir.KindGroup:
		_, err = s.groupOf(ctx, eventID, target.ID)
	default:
		return false, nil
	}
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	return err == nil, err
}

// changed announces a mutation that may move the set of song targets.
func (s *Service) changed(ctx context.Context, ev *eventref.Event, change string, id httpkit.Identity) {
	s.publish(context.WithoutCancel(ctx), events.RosterChanged{
		BaseEvent:     events.NewBaseEvent(),
		EventRecordID: ev.ID,
		EventID:       ev.EventID,
		Change:        change,
		ActorID:       id.SubjectID(),
	})
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}
