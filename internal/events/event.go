// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/google/uuid"

	"minimusiker_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// School Event Domain Events
// =============================================================================

// BookingReceived is published when a booking creates a new event.
type BookingReceived struct {
	BaseEvent
	EventRecordID uuid.UUID `json:"eventRecordId"`
	EventID       string    `json:"eventId"`
	SchoolName    string    `json:"schoolName"`
	EventDate     string    `json:"eventDate"`
	ContactName   string    `json:"contactName"`
	ContactEmail  string    `json:"contactEmail"`
	Source        string    `json:"source"`
}

func (e BookingReceived) EventName() string { return "schoolevents.booking.received" }

// DealUpdated is published after the deal type or config of an event changed.
type DealUpdated struct {
	BaseEvent
	EventRecordID uuid.UUID `json:"eventRecordId"`
	EventID       string    `json:"eventId"`
	DealType      string    `json:"dealType"`
	ActorID       string    `json:"actorId"`
}

func (e DealUpdated) EventName() string { return "schoolevents.deal.updated" }

// ClassesImported is published after a bulk class import.
type ClassesImported struct {
	BaseEvent
	EventRecordID uuid.UUID `json:"eventRecordId"`
	EventID       string    `json:"eventId"`
	Created       int       `json:"created"`
	Failed        int       `json:"failed"`
	ActorID       string    `json:"actorId"`
}

func (e ClassesImported) EventName() string { return "roster.classes.imported" }

// RosterChanged is published when a song, class or group mutation may have
// changed the set of recording targets of an event.
type RosterChanged struct {
	BaseEvent
	EventRecordID uuid.UUID `json:"eventRecordId"`
	EventID       string    `json:"eventId"`
	Change        string    `json:"change"`
	ActorID       string    `json:"actorId"`
}

func (e RosterChanged) EventName() string { return "roster.changed" }

// =============================================================================
// Audio Domain Events
// =============================================================================

// AudioUploadConfirmed is published when an uploaded file was verified in storage.
type AudioUploadConfirmed struct {
	BaseEvent
	EventRecordID uuid.UUID `json:"eventRecordId"`
	EventID       string    `json:"eventId"`
	AudioFileID   uuid.UUID `json:"audioFileId"`
	FileType      string    `json:"fileType"`
	Target        string    `json:"target,omitempty"`
	ActorID       string    `json:"actorId"`
}

func (e AudioUploadConfirmed) EventName() string { return "audio.upload.confirmed" }

// EventStageChanged is published when the recomputed pipeline stage differs
// from the previously cached one.
type EventStageChanged struct {
	BaseEvent
	EventRecordID uuid.UUID `json:"eventRecordId"`
	EventID       string    `json:"eventId"`
	From          string    `json:"from"`
	To            string    `json:"to"`
}

func (e EventStageChanged) EventName() string { return "audio.stage.changed" }

// =============================================================================
// Email Domain Events
// =============================================================================

// EmailSent is published after an automated email was delivered to the provider.
type EmailSent struct {
	BaseEvent
	EventRecordID uuid.UUID `json:"eventRecordId"`
	EventID       string    `json:"eventId"`
	TemplateID    uuid.UUID `json:"templateId"`
	Recipient     string    `json:"recipient"`
}

func (e EmailSent) EventName() string { return "emailautomation.email.sent" }

// =============================================================================
// Task Domain Events
// =============================================================================

// TaskCompleted is published when a queue task reached completed.
type TaskCompleted struct {
	BaseEvent
	TaskID         uuid.UUID  `json:"taskId"`
	EventRecordID  uuid.UUID  `json:"eventRecordId"`
	TaskType       string     `json:"taskType"`
	ShippingTaskID *uuid.UUID `json:"shippingTaskId,omitempty"`
	ActorID        string     `json:"actorId"`
}

func (e TaskCompleted) EventName() string { return "tasks.task.completed" }
