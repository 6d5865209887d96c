package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces
// =====================================

// EventReader provides the lookups the identifier resolver walks through.
type EventReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Event, error)
	GetByEventID(ctx context.Context, eventID string) (Event, error)
	GetByLegacyBookingID(ctx context.Context, legacyID string) (Event, error)
	GetBySchoolBookingID(ctx context.Context, bookingID uuid.UUID) (Event, error)
	List(ctx context.Context, params ListParams) ([]Event, int, error)
	ListByTeacherEmail(ctx context.Context, email string) ([]Event, error)
}

// EventWriter provides write operations on events.
type EventWriter interface {
	Create(ctx context.Context, params CreateEventParams) (Event, error)
	UpdateDeal(ctx context.Context, id uuid.UUID, params UpdateDealParams) (Event, error)
	UpdateTimelineOverrides(ctx context.Context, id uuid.UUID, raw string) (Event, error)
	UpdatePipelineCache(ctx context.Context, id uuid.UUID, params PipelineCacheParams) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Event, error)
}

// BookingStore stores raw SimplyBook bookings.
type BookingStore interface {
	GetBookingBySimplybookID(ctx context.Context, simplybookID string) (SchoolBooking, error)
	CreateBooking(ctx context.Context, params CreateBookingParams) (SchoolBooking, error)
}

// ContactStore manages the people linked to an event.
type ContactStore interface {
	AddTeacher(ctx context.Context, eventID uuid.UUID, name, email string) (EventTeacher, error)
	ListTeachers(ctx context.Context, eventID uuid.UUID) ([]EventTeacher, error)
	AssignStaff(ctx context.Context, eventID uuid.UUID, staffID, role string) error
	UnassignStaff(ctx context.Context, eventID uuid.UUID, staffID, role string) error
	ListStaff(ctx context.Context, eventID uuid.UUID) ([]StaffAssignment, error)
	IsStaffAssigned(ctx context.Context, eventID uuid.UUID, staffID, role string) (bool, error)
	IsTeacher(ctx context.Context, eventID uuid.UUID, email string) (bool, error)
	IsParent(ctx context.Context, eventID uuid.UUID, email string) (bool, error)
	CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error)
	HasMerchOrder(ctx context.Context, eventID uuid.UUID, email string) (bool, error)
}

// EventsRepository composes everything the schoolevents service needs.
type EventsRepository interface {
	EventReader
	EventWriter
	BookingStore
	ContactStore
}

// ListParams filters the admin event list.
type ListParams struct {
	Status   string
	DealType string
	From     *time.Time
	To       *time.Time
	Search   string
	Offset   int
	Limit    int
}

// CreateEventParams holds the columns of a new event.
type CreateEventParams struct {
	EventID           string
	LegacyBookingID   *string
	SchoolBookingID   *uuid.UUID
	SchoolName        string
	EventDate         time.Time
	DealType          string
	DealConfig        string
	IsMinimusikertag  bool
	IsPlus            bool
	IsKita            bool
	IsSchulsong       bool
	EstimatedChildren int
}

// UpdateDealParams holds the deal columns and the flags derived from them.
type UpdateDealParams struct {
	DealType          string
	DealConfig        string
	IsMinimusikertag  bool
	IsPlus            bool
	IsKita            bool
	IsSchulsong       bool
	EstimatedChildren int
}

// PipelineCacheParams holds the cached audio pipeline fields.
type PipelineCacheParams struct {
	AdminApprovalStatus string
	AllTracksApproved   bool
	PipelineStage       string
	SchulsongReleasedAt *time.Time
}

// CreateBookingParams holds a normalised SimplyBook booking.
type CreateBookingParams struct {
	SimplybookID      string
	SchoolName        string
	ContactName       string
	ContactEmail      string
	ContactPhone      string
	EventDate         time.Time
	EstimatedChildren int
	RawPayload        string
}
