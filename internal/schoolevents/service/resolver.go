package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"minimusiker_backend/internal/schoolevents/repository"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/cache"
)

const (
	resolveCachePrefix = "resolve:"
	msgEventNotFound   = "event not found"
)

// Resolve turns a generated event ID, a SimplyBook booking ID, a legacy
// booking ID or a record UUID into the canonical event. The first match wins.
//
// Only the input to record ID mapping is cached; the record itself is always
// read fresh so cached lookups never serve stale flags or pipeline fields.
func (s *Service) Resolve(ctx context.Context, input string) (*eventref.Event, error) {
	e, err := s.resolveRecord(ctx, input)
	if err != nil {
		return nil, err
	}
	ref := toRef(e)
	return &ref, nil
}

func (s *Service) resolveRecord(ctx context.Context, input string) (repository.Event, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return repository.Event{}, apperr.NotFound(msgEventNotFound)
	}

	if e, ok := s.fromCache(ctx, input); ok {
		return e, nil
	}

	e, err := s.lookup(ctx, input)
	if err != nil {
		return repository.Event{}, err
	}

	if s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, resolveCachePrefix+input, e.ID.String(), s.cacheTTL); err != nil {
			s.log.Warn("resolver cache write failed", "input", input, "error", err)
		}
	}
	return e, nil
}

func (s *Service) fromCache(ctx context.Context, input string) (repository.Event, bool) {
	if s.cacheTTL <= 0 {
		return repository.Event{}, false
	}

	var raw string
	if err := s.cache.Get(ctx, resolveCachePrefix+input, &raw); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("resolver cache read failed", "input", input, "error", err)
		}
		return repository.Event{}, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return repository.Event{}, false
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// A mapping to a vanished record falls back to the full chain.
		_ = s.cache.Delete(ctx, resolveCachePrefix+input)
		return repository.Event{}, false
	}
	return e, true
}

func (s *Service) lookup(ctx context.Context, input string) (repository.Event, error) {
	e, err := s.repo.GetByEventID(ctx, input)
	if found, err := settle(err); found || err != nil {
		return e, err
	}

	if isNumeric(input) {
		booking, err := s.repo.GetBookingBySimplybookID(ctx, input)
		found, err := settle(err)
		if err != nil {
			return repository.Event{}, err
		}
		if found {
			e, err := s.repo.GetBySchoolBookingID(ctx, booking.ID)
			if found, err := settle(err); found || err != nil {
				return e, err
			}
		}
	}

	e, err = s.repo.GetByLegacyBookingID(ctx, input)
	if found, err := settle(err); found || err != nil {
		return e, err
	}

	if id, perr := uuid.Parse(input); perr == nil {
		e, err = s.repo.GetByID(ctx, id)
		if found, err := settle(err); found || err != nil {
			return e, err
		}
	}

	return repository.Event{}, apperr.NotFound(msgEventNotFound)
}

// settle folds a lookup error into (found, fatal error). NotFound is not fatal.
func settle(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	return false, err
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
