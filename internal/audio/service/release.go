package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/audio/pipeline"
	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/schoolevents/timeline"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
)

// ListReleaseDue returns active events cached as approved whose release
// dates have been reached. Their cache is stale until recomputed.
func (s *Service) ListReleaseDue(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.repo.ListEventIDsAtStage(ctx, string(pipeline.StageApproved))
	if err != nil {
		return nil, err
	}

	now := s.now()
	due := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		ev, err := s.resolver.Resolve(ctx, id.String())
		if apperr.Is(err, apperr.KindNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if releaseReached(ev, now) {
			due = append(due, ev.ID)
		}
	}
	return due, nil
}

func releaseReached(ev *eventref.Event, now time.Time) bool {
	m := ev.Milestones()
	if !timeline.Reached(m.AudioRelease, now) {
		return false
	}
	return !ev.IsSchulsong || timeline.Reached(m.SchulsongRelease, now)
}

// RecomputeEvent recomputes the stage of an event by record id. It runs
// without a caller identity and is meant for background jobs and bus handlers.
func (s *Service) RecomputeEvent(ctx context.Context, eventID uuid.UUID) (pipeline.Result, error) {
	ev, err := s.resolver.Resolve(ctx, eventID.String())
	if err != nil {
		return pipeline.Result{}, err
	}
	return s.recompute(ctx, ev)
}

// Subscribe keeps the cached stage in step with roster and deal changes
func (s *Service) Subscribe(bus events.Bus) {
	bus.Subscribe(events.RosterChanged{}.EventName(), events.HandlerFunc(s.handleRosterChanged))
	bus.Subscribe(events.DealUpdated{}.EventName(), events.HandlerFunc(s.handleDealUpdated))
}

func (s *Service) handleRosterChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(events.RosterChanged)
	if !ok {
		return nil
	}
	return s.recomputeQuietly(ctx, changed.EventRecordID)
}

// handleDealUpdated covers deal changes that toggle the schulsong flag.
func (s *Service) handleDealUpdated(ctx context.Context, event events.Event) error {
	updated, ok := event.(events.DealUpdated)
	if !ok {
		return nil
	}
	return s.recomputeQuietly(ctx, updated.EventRecordID)
}

// recomputeQuietly ignores events deleted in the meantime.
func (s *Service) recomputeQuietly(ctx context.Context, eventID uuid.UUID) error {
	if _, err := s.RecomputeEvent(ctx, eventID); err != nil && !apperr.Is(err, apperr.KindNotFound) {
		s.log.Error("stage recompute failed", "eventRecordId", eventID, "error", err)
		return err
	}
	return nil
}
