package transport

import (
	"time"

	"github.com/google/uuid"
)

// TemplateRequest creates or replaces an email template.
type TemplateRequest struct {
	Name                   string   `json:"name" validate:"required,min=1,max=120"`
	Audience               []string `json:"audience" validate:"required,min=1,max=3,dive,oneof=teacher parent non-buyer"`
	TriggerType            string   `json:"triggerType" validate:"omitempty,oneof=scheduled on_release"`
	TriggerDays            int      `json:"triggerDays" validate:"min=-365,max=365"`
	TriggerHour            *int     `json:"triggerHour" validate:"omitempty,min=0,max=23"`
	FilterIsMinimusikertag *bool    `json:"filterIsMinimusikertag"`
	FilterIsPlus           *bool    `json:"filterIsPlus"`
	FilterIsSchulsong      *bool    `json:"filterIsSchulsong"`
	FilterIsKita           *bool    `json:"filterIsKita"`
	Active                 *bool    `json:"active"`
	Subject                string   `json:"subject" validate:"required,max=200"`
	BodyHTML               string   `json:"bodyHtml" validate:"required"`
}

// TemplateResponse is the API view of a template.
type TemplateResponse struct {
	ID                     uuid.UUID `json:"id"`
	Name                   string    `json:"name"`
	Audience               []string  `json:"audience"`
	TriggerType            string    `json:"triggerType"`
	TriggerDays            int       `json:"triggerDays"`
	TriggerHour            *int      `json:"triggerHour,omitempty"`
	FilterIsMinimusikertag *bool     `json:"filterIsMinimusikertag,omitempty"`
	FilterIsPlus           *bool     `json:"filterIsPlus,omitempty"`
	FilterIsSchulsong      *bool     `json:"filterIsSchulsong,omitempty"`
	FilterIsKita           *bool     `json:"filterIsKita,omitempty"`
	Active                 bool      `json:"active"`
	Subject                string    `json:"subject"`
	BodyHTML               string    `json:"bodyHtml"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// RunRequest triggers a template for one event.
type RunRequest struct {
	Event       string `json:"event" validate:"required"`
	ForceResend bool   `json:"forceResend"`
}

// RecipientResponse is one resolved addressee.
type RecipientResponse struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	ChildName string `json:"childName,omitempty"`
	Role      string `json:"role"`
}

// PreviewResponse is a template rendered for one event.
type PreviewResponse struct {
	TemplateID uuid.UUID           `json:"templateId"`
	EventID    string              `json:"eventId"`
	Matches    bool                `json:"matches"`
	Subject    string              `json:"subject"`
	HTML       string              `json:"html"`
	Recipients []RecipientResponse `json:"recipients"`
}

// SendResult is the outcome of one recipient.
type SendResult struct {
	Recipient string `json:"recipient"`
	Status    string `json:"status"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BulkResponse reports a batch send. Pending counts recipients that were not
// attempted because the run was cancelled.
type BulkResponse struct {
	TemplateID uuid.UUID    `json:"templateId"`
	EventID    string       `json:"eventId"`
	Sent       int          `json:"sent"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Pending    int          `json:"pending"`
	Cancelled  bool         `json:"cancelled"`
	Results    []SendResult `json:"results"`
}

// LogResponse is one row of the send history.
type LogResponse struct {
	ID                uuid.UUID `json:"id"`
	TemplateID        uuid.UUID `json:"templateId"`
	EventID           uuid.UUID `json:"eventId"`
	RecipientEmail    string    `json:"recipientEmail"`
	Status            string    `json:"status"`
	ProviderMessageID *string   `json:"providerMessageId,omitempty"`
	Error             *string   `json:"error,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// DuePair is one (template, event) combination due for sending.
type DuePair struct {
	TemplateID uuid.UUID `json:"templateId"`
	EventID    uuid.UUID `json:"eventId"`
}

// ListLogsRequest filters the send history.
type ListLogsRequest struct {
	Event      string `form:"event"`
	TemplateID string `form:"templateId" validate:"omitempty,uuid"`
	Limit      int    `form:"limit" validate:"omitempty,min=1,max=200"`
}
