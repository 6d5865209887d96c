package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateTaskRequest opens a task for an event
type CreateTaskRequest struct {
	Event string `json:"event" validate:"required"`
	Type  string `json:"type" validate:"required,oneof=guesstimate_order print_order shipping"`
}

// ListTasksRequest filters the queue
type ListTasksRequest struct {
	Status string `form:"status" validate:"omitempty,oneof=pending completed cancelled"`
	Type   string `form:"type" validate:"omitempty,oneof=guesstimate_order print_order shipping"`
	Event  string `form:"event"`
}

// CompleteTaskRequest carries the completion details of an order
type CompleteTaskRequest struct {
	AmountCents   *int   `json:"amountCents" validate:"omitempty,min=0"`
	InvoiceNumber string `json:"invoiceNumber" validate:"max=100"`
	Notes         string `json:"notes" validate:"max=2000"`
}

// CompletionData is the stored completion payload
type CompletionData struct {
	AmountCents   *int   `json:"amountCents,omitempty"`
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// TaskResponse is the API view of a task
type TaskResponse struct {
	ID             uuid.UUID       `json:"id"`
	EventID        uuid.UUID       `json:"eventId"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	CompletionData *CompletionData `json:"completionData,omitempty"`
	ParentTaskID   *uuid.UUID      `json:"parentTaskId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

// CompleteTaskResponse returns the completed task and a spawned shipping task
type CompleteTaskResponse struct {
	Task     TaskResponse  `json:"task"`
	Shipping *TaskResponse `json:"shipping,omitempty"`
}

// EventTasks groups the queue by event
type EventTasks struct {
	EventRecordID uuid.UUID      `json:"eventRecordId"`
	EventID       string         `json:"eventId"`
	SchoolName    string         `json:"schoolName"`
	EventDate     time.Time      `json:"eventDate"`
	Tasks         []TaskResponse `json:"tasks"`
}

// QueueResponse is the grouped task queue
type QueueResponse struct {
	Groups []EventTasks `json:"groups"`
	Total  int          `json:"total"`
}
