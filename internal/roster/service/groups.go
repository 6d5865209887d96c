package service

import (
	"context"

	"github.com/google/uuid"

	"minimusiker_backend/internal/roster/repository"
	"minimusiker_backend/internal/roster/transport"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/httpkit"
	"minimusiker_backend/platform/sanitize"
)

const minGroupClasses = 2

// ListGroups returns the choir groups of an event
func (s *Service) ListGroups(ctx context.Context, ref string, id httpkit.Identity) ([]transport.GroupResponse, error) {
	ev, err := s.event(ctx, ref, id, false)
	if err != nil {
		return nil, err
	}
	groups, err := s.repo.ListGroups(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	return toGroupResponses(groups), nil
}

// CreateGroup creates a choir group of at least two classes of the event
func (s *Service) CreateGroup(ctx context.Context, ref string, id httpkit.Identity, req transport.GroupRequest) (transport.GroupResponse, error) {
	ev, err := s.event(ctx, ref, id, true)
	if err != nil {
		return transport.GroupResponse{}, err
	}
	params, err := s.groupParams(ctx, ev.ID, req)
	if err != nil {
		return transport.GroupResponse{}, err
	}
	g, err := s.repo.CreateGroup(ctx, params)
	if err != nil {
		return transport.GroupResponse{}, err
	}
	return toGroupResponse(g), nil
}

// UpdateGroup renames a group and replaces its member classes
func (s *Service) UpdateGroup(ctx context.Context, ref string, groupID uuid.UUID, id httpkit.Identity, req transport.GroupRequest) (transport.GroupResponse, error) {
	ev, err := s.event(ctx, ref, id, true)
	if err != nil {
		return transport.GroupResponse{}, err
	}
	if _, err := s.groupOf(ctx, ev.ID, groupID); err != nil {
		return transport.GroupResponse{}, err
	}
	params, err := s.groupParams(ctx, ev.ID, req)
	if err != nil {
		return transport.GroupResponse{}, err
	}
	g, err := s.repo.UpdateGroup(ctx, groupID, params)
	if err != nil {
		return transport.GroupResponse{}, err
	}
	return toGroupResponse(g), nil
}

// DeleteGroup removes a group of the event
func (s *Service) DeleteGroup(ctx context.Context, ref string, groupID uuid.UUID, id httpkit.Identity) error {
	ev, err := s.event(ctx, ref, id, true)
	if err != nil {
		return err
	}
	if _, err := s.groupOf(ctx, ev.ID, groupID); err != nil {
		return err
	}
	if err := s.repo.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	s.changed(ctx, ev, "group.deleted", id)
	return nil
}

// groupParams validates the member list: at least two distinct classes, all
// belonging to the event.
func (s *Service) groupParams(ctx context.Context, eventID uuid.UUID, req transport.GroupRequest) (repository.GroupParams, error) {
	name := sanitize.Line(req.Name)
	if name == "" {
		return repository.GroupParams{}, apperr.Validation("group name is required")
	}

	seen := make(map[uuid.UUID]struct{}, len(req.ClassIDs))
	classIDs := make([]uuid.UUID, 0, len(req.ClassIDs))
	for _, raw := range req.ClassIDs {
		classID, err := uuid.Parse(raw)
		if err != nil {
			return repository.GroupParams{}, apperr.Validation("invalid class id")
		}
		if _, dup := seen[classID]; dup {
			continue
		}
		seen[classID] = struct{}{}
		classIDs = append(classIDs, classID)
	}
	if len(classIDs) < minGroupClasses {
		return repository.GroupParams{}, apperr.Validation("a group needs at least two different classes")
	}

	for _, classID := range classIDs {
		c, err := s.repo.GetClass(ctx, classID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return repository.GroupParams{}, apperr.Validation("group classes must belong to the event")
			}
			return repository.GroupParams{}, err
		}
		if c.EventID != eventID {
			return repository.GroupParams{}, apperr.Validation("group classes must belong to the event")
		}
	}

	return repository.GroupParams{EventID: eventID, Name: name, ClassIDs: classIDs}, nil
}

func (s *Service) groupOf(ctx context.Context, eventID, groupID uuid.UUID) (repository.Group, error) {
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return repository.Group{}, err
	}
	if g.EventID != eventID {
		return repository.Group{}, apperr.NotFound("group not found")
	}
	return g, nil
}
