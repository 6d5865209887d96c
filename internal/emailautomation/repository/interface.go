package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TemplateStore defines persistence for email templates
type TemplateStore interface {
	GetTemplate(ctx context.Context, id uuid.UUID) (Template, error)
	ListTemplates(ctx context.Context, params ListTemplatesParams) ([]Template, error)
	CreateTemplate(ctx context.Context, params TemplateParams) (Template, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, params TemplateParams) (Template, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	// SeedTemplate inserts a template unless one with the same name exists.
	SeedTemplate(ctx context.Context, params TemplateParams) (bool, error)
}

// LogStore defines persistence for email send attempts
type LogStore interface {
	HasSent(ctx context.Context, templateID, eventID uuid.UUID, recipient string) (bool, error)
	// InsertLog records one attempt. For sent rows it reports false when a
	// concurrent attempt already recorded the same send.
	InsertLog(ctx context.Context, params LogParams) (bool, error)
	ListLogs(ctx context.Context, params ListLogsParams) ([]LogEntry, error)
}

// RecipientReader resolves recipient candidates per audience role.
type RecipientReader interface {
	ListTeacherRecipients(ctx context.Context, eventID uuid.UUID) ([]Recipient, error)
	// ListParentRecipients returns registered parents; buyersOnly restricts
	// the set to parents with at least one merchandise order.
	ListParentRecipients(ctx context.Context, eventID uuid.UUID, buyersOnly bool) ([]Recipient, error)
	ListNonBuyerRecipients(ctx context.Context, eventID uuid.UUID) ([]Recipient, error)
	// ListActiveEventIDs returns active events dated within [from, to].
	ListActiveEventIDs(ctx context.Context, from, to time.Time) ([]uuid.UUID, error)
}

// AutomationRepository is the full persistence contract of the module.
type AutomationRepository interface {
	TemplateStore
	LogStore
	RecipientReader
}

// ListTemplatesParams filters template listings.
type ListTemplatesParams struct {
	ActiveOnly  bool
	TriggerType string
}

// TemplateParams carries the writable template fields.
type TemplateParams struct {
	Name                   string
	Audience               []string
	TriggerType            string
	TriggerDays            int
	TriggerHour            *int
	FilterIsMinimusikertag *bool
	FilterIsPlus           *bool
	FilterIsSchulsong      *bool
	FilterIsKita           *bool
	Active                 bool
	Subject                string
	BodyHTML               string
}

// LogParams describes one send attempt.
type LogParams struct {
	TemplateID        uuid.UUID
	EventID           uuid.UUID
	RecipientEmail    string
	Status            string
	ProviderMessageID *string
	Error             *string
	// Replace lets a forced resend overwrite the existing sent row.
	Replace bool
}

// ListLogsParams filters the send history.
type ListLogsParams struct {
	EventID    *uuid.UUID
	TemplateID *uuid.UUID
	Limit      int
}
