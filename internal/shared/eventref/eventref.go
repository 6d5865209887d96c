// Package eventref holds the read model of a resolved event shared by every
// module that acts on an event, plus the small interfaces those modules use to
// resolve events and check access without importing the events module.
package eventref

import (
	"context"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/schoolevents/timeline"
)

// Event statuses.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Event is the canonical event record as other modules see it.
type Event struct {
	ID                  uuid.UUID  `json:"id"`
	EventID             string     `json:"eventId"`
	LegacyBookingID     *string    `json:"legacyBookingId,omitempty"`
	SchoolName          string     `json:"schoolName"`
	EventDate           time.Time  `json:"eventDate"`
	DealType            string     `json:"dealType"`
	IsMinimusikertag    bool       `json:"isMinimusikertag"`
	IsPlus              bool       `json:"isPlus"`
	IsKita              bool       `json:"isKita"`
	IsSchulsong         bool       `json:"isSchulsong"`
	TimelineOverrides   string     `json:"-"`
	AdminApprovalStatus string     `json:"adminApprovalStatus"`
	AllTracksApproved   bool       `json:"allTracksApproved"`
	PipelineStage       string     `json:"pipelineStage"`
	SchulsongReleasedAt *time.Time `json:"schulsongReleasedAt,omitempty"`
	EstimatedChildren   int        `json:"estimatedChildren"`
	Status              string     `json:"status"`
}

// Overrides parses the stored timeline overrides.
func (e Event) Overrides() timeline.Overrides {
	return timeline.ParseOverrides(e.TimelineOverrides)
}

// Milestones derives the event's timeline dates.
func (e Event) Milestones() timeline.Milestones {
	return timeline.Build(e.EventDate, e.Overrides())
}

// Resolver turns any accepted identifier into the canonical event.
// Unknown identifiers yield an apperr NotFound error.
type Resolver interface {
	Resolve(ctx context.Context, input string) (*Event, error)
}

// Access answers ownership questions for portal sessions.
type Access interface {
	IsStaffAssigned(ctx context.Context, eventID uuid.UUID, staffID, role string) (bool, error)
	IsTeacher(ctx context.Context, eventID uuid.UUID, email string) (bool, error)
	IsParent(ctx context.Context, eventID uuid.UUID, email string) (bool, error)
}
