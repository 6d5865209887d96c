// Package service implements the order task queue: guesstimate and print
// orders that spawn one shipping task once completed.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/internal/tasks/repository"
	"minimusiker_backend/internal/tasks/transport"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/logger"
)

// Service provides business logic for the task queue
type Service struct {
	repo     repository.TasksRepository
	resolver eventref.Resolver
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new task queue service
func New(repo repository.TasksRepository, resolver eventref.Resolver, bus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, resolver: resolver, bus: bus, log: log}
}

// Create opens a pending task for a resolved event
func (s *Service) Create(ctx context.Context, req transport.CreateTaskRequest) (transport.TaskResponse, error) {
	ev, err := s.resolver.Resolve(ctx, req.Event)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	if ev.Status == eventref.StatusCancelled {
		return transport.TaskResponse{}, apperr.Conflict("event is cancelled")
	}

	t, err := s.repo.Create(ctx, repository.CreateParams{EventID: ev.ID, Type: req.Type})
	if err != nil {
		return transport.TaskResponse{}, err
	}
	s.log.Info("task created", "taskId", t.ID, "eventId", ev.EventID, "type", t.Type)
	return toResponse(t), nil
}

// Get returns one task
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.TaskResponse, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	return toResponse(t), nil
}

// List returns the filtered queue grouped by event in event date order
func (s *Service) List(ctx context.Context, req transport.ListTasksRequest) (transport.QueueResponse, error) {
	params := repository.ListParams{Status: req.Status, Type: req.Type}
	if req.Event != "" {
		ev, err := s.resolver.Resolve(ctx, req.Event)
		if err != nil {
			return transport.QueueResponse{}, err
		}
		params.EventID = &ev.ID
	}

	items, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.QueueResponse{}, err
	}

	resp := transport.QueueResponse{Groups: make([]transport.EventTasks, 0), Total: len(items)}
	index := make(map[uuid.UUID]int)
	for _, it := range items {
		i, ok := index[it.EventID]
		if !ok {
			i = len(resp.Groups)
			index[it.EventID] = i
			resp.Groups = append(resp.Groups, transport.EventTasks{
				EventRecordID: it.EventID,
				EventID:       it.EventRef,
				SchoolName:    it.SchoolName,
				EventDate:     it.EventDate,
				Tasks:         make([]transport.TaskResponse, 0),
			})
		}
		resp.Groups[i].Tasks = append(resp.Groups[i].Tasks, toResponse(it.Task))
	}
	return resp, nil
}

// Complete closes a pending task. Guesstimate and print orders spawn their
// shipping task exactly once.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actorID string, req transport.CompleteTaskRequest) (transport.CompleteTaskResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CompleteTaskResponse{}, err
	}

	data, err := json.Marshal(transport.CompletionData{
		AmountCents:   req.AmountCents,
		InvoiceNumber: req.InvoiceNumber,
		Notes:         req.Notes,
	})
	if err != nil {
		return transport.CompleteTaskResponse{}, fmt.Errorf("encode completion data: %w", err)
	}

	t, shipping, err := s.repo.Complete(ctx, id, string(data), spawnsShipping(current.Type))
	if err != nil {
		return transport.CompleteTaskResponse{}, err
	}

	resp := transport.CompleteTaskResponse{Task: toResponse(t)}
	event := events.TaskCompleted{
		BaseEvent:     events.NewBaseEvent(),
		TaskID:        t.ID,
		EventRecordID: t.EventID,
		TaskType:      t.Type,
		ActorID:       actorID,
	}
	if shipping != nil {
		sr := toResponse(*shipping)
		resp.Shipping = &sr
		event.ShippingTaskID = &shipping.ID
	}

	s.log.Info("task completed", "taskId", t.ID, "type", t.Type, "shippingSpawned", shipping != nil)
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
	return resp, nil
}

// Cancel closes a pending task without completing it
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (transport.TaskResponse, error) {
	t, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	s.log.Info("task cancelled", "taskId", t.ID, "type", t.Type)
	return toResponse(t), nil
}

func spawnsShipping(taskType string) bool {
	return taskType == repository.TypeGuesstimateOrder || taskType == repository.TypePrintOrder
}

// parseCompletionData reads stored completion data; malformed values are
// treated as absent.
func parseCompletionData(raw string) *transport.CompletionData {
	if raw == "" {
		return nil
	}
	var data transport.CompletionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}
	return &data
}

func toResponse(t repository.Task) transport.TaskResponse {
	return transport.TaskResponse{
		ID:             t.ID,
		EventID:        t.EventID,
		Type:           t.Type,
		Status:         t.Status,
		CompletionData: parseCompletionData(t.CompletionData),
		ParentTaskID:   t.ParentTaskID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		CompletedAt:    t.CompletedAt,
	}
}
