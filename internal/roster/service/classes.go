package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/roster/repository"
	"minimusiker_backend/internal/roster/transport"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/httpkit"
	"minimusiker_backend/platform/sanitize"
)

// ListClasses returns the classes of an event
func (s *Service) ListClasses(ctx context.Context, ref string, id httpkit.Identity) ([]transport.ClassResponse, error) {
	ev, err := s.event(ctx, ref, id, false)
	if err != nil {
		return nil, err
	}
	classes, err := s.repo.ListClasses(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	return toClassResponses(classes), nil
}

// CreateClass adds a class to an event
func (s *Service) CreateClass(ctx context.Context, ref string, id httpkit.Identity, req transport.ClassRequest) (transport.ClassResponse, error) {
	ev, err := s.event(ctx, ref, id, true)
	if err != nil {
		return transport.ClassResponse{}, err
	}
	c, err := s.createClass(ctx, ev, req)
	if err != nil {
		return transport.ClassResponse{}, err
	}
	return toClassResponse(c), nil
}

// UpdateClass changes a class of the event
func (s *Service) UpdateClass(ctx context.Context, ref string, classID uuid.UUID, id httpkit.Identity, req transport.ClassRequest) (transport.ClassResponse, error) {
	ev, err := s.event(ctx, ref, id, true)
	if err != nil {
		return transport.ClassResponse{}, err
	}
	if _, err := s.classOf(ctx, ev.ID, classID); err != nil {
		return transport.ClassResponse{}, err
	}
	params, err := classParams(ev.ID, req)
	if err != nil {
		return transport.ClassResponse{}, err
	}
	c, err := s.repo.UpdateClass(ctx, classID, params)
	if err != nil {
		return transport.ClassResponse{}, err
	}
	return toClassResponse(c), nil
}

// DeleteClass removes a class of the event
func (s *Service) DeleteClass(ctx context.Context, ref string, classID uuid.UUID, id httpkit.Identity) error {
	ev, err := s.event(ctx, ref, id, true)
	if err != nil {
		return err
	}
	if _, err := s.classOf(ctx, ev.ID, classID); err != nil {
		return err
	}
	if err := s.repo.DeleteClass(ctx, classID); err != nil {
		return err
	}
	s.changed(ctx, ev, "class.deleted", id)
	return nil
}

// ImportClasses creates the given classes one by one. Items that fail are
// reported and the import continues; cancellation stops before the next item
// and reports how many were skipped.
func (s *Service) ImportClasses(ctx context.Context, ref string, id httpkit.Identity, req transport.ImportClassesRequest) (transport.ImportClassesResponse, error) {
	ev, err := s.event(ctx, ref, id, true)
	if err != nil {
		return transport.ImportClassesResponse{}, err
	}

	result := transport.ImportClassesResponse{
		Created: make([]transport.ClassResponse, 0, len(req.Classes)),
		Failed:  make([]transport.ImportFailure, 0),
	}
	for i, item := range req.Classes {
		if ctx.Err() != nil {
			result.Cancelled = true
			result.Skipped = len(req.Classes) - i
			break
		}
		c, err := s.createClass(ctx, ev, item)
		if err != nil {
			result.Failed = append(result.Failed, transport.ImportFailure{
				Index: i,
				Name:  item.Name,
				Error: importError(err),
			})
			if !isClientError(err) {
				s.log.Error("class import item failed", "eventId", ev.EventID, "index", i, "error", err)
			}
			continue
		}
		result.Created = append(result.Created, toClassResponse(c))
	}

	s.log.Info("classes imported",
		"eventId", ev.EventID,
		"created", len(result.Created),
		"failed", len(result.Failed),
		"cancelled", result.Cancelled,
	)
	// The caller may be gone; the event still describes what was written.
	s.publish(context.WithoutCancel(ctx), events.ClassesImported{
		BaseEvent:     events.NewBaseEvent(),
		EventRecordID: ev.ID,
		EventID:       ev.EventID,
		Created:       len(result.Created),
		Failed:        len(result.Failed),
		ActorID:       id.SubjectID(),
	})
	return result, nil
}

func (s *Service) createClass(ctx context.Context, ev *eventref.Event, req transport.ClassRequest) (repository.Class, error) {
	params, err := classParams(ev.ID, req)
	if err != nil {
		return repository.Class{}, err
	}
	return s.repo.CreateClass(ctx, params)
}

// classOf loads a class and checks that it belongs to the event.
func (s *Service) classOf(ctx context.Context, eventID, classID uuid.UUID) (repository.Class, error) {
	c, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return repository.Class{}, err
	}
	if c.EventID != eventID {
		return repository.Class{}, apperr.NotFound("class not found")
	}
	return c, nil
}

func classParams(eventID uuid.UUID, req transport.ClassRequest) (repository.ClassParams, error) {
	name := sanitize.Line(req.Name)
	if name == "" {
		return repository.ClassParams{}, apperr.Validation("class name is required")
	}
	if req.NumChildren < 0 {
		return repository.ClassParams{}, apperr.Validation("number of children must not be negative")
	}
	return repository.ClassParams{
		EventID:     eventID,
		Name:        name,
		TeacherName: sanitize.Line(req.TeacherName),
		NumChildren: req.NumChildren,
	}, nil
}

func isClientError(err error) bool {
	switch apperr.GetKind(err) {
	case apperr.KindValidation, apperr.KindConflict, apperr.KindNotFound:
		return true
	default:
		return false
	}
}

func importError(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && isClientError(err) {
		return appErr.Message
	}
	return "could not create class"
}
