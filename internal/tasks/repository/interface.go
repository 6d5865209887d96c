package repository

import (
	"context"

	"github.com/google/uuid"
)

// TaskReader defines read operations for the queue
type TaskReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Task, error)
	List(ctx context.Context, params ListParams) ([]QueueItem, error)
}

// TaskWriter defines the queue transitions
type TaskWriter interface {
	Create(ctx context.Context, params CreateParams) (Task, error)
	// Complete moves a pending task to completed. When spawnShipping is set
	// the dependent shipping task is created in the same transaction.
	Complete(ctx context.Context, id uuid.UUID, completionData string, spawnShipping bool) (Task, *Task, error)
	Cancel(ctx context.Context, id uuid.UUID) (Task, error)
}

// TasksRepository composes the queue contracts
type TasksRepository interface {
	TaskReader
	TaskWriter
}

// ListParams filters the queue. Empty values are not applied.
type ListParams struct {
	Status  string
	Type    string
	EventID *uuid.UUID
}

// CreateParams describes a new pending task
type CreateParams struct {
	EventID uuid.UUID
	Type    string
}
