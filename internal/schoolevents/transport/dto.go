package transport

import (
	"time"

	"minimusiker_backend/internal/schoolevents/deal"
	"minimusiker_backend/internal/schoolevents/timeline"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// EventResponse is the full event view for admins.
type EventResponse struct {
	ID                  string             `json:"id"`
	EventID             string             `json:"eventId"`
	LegacyBookingID     *string            `json:"legacyBookingId,omitempty"`
	SchoolName          string             `json:"schoolName"`
	EventDate           string             `json:"eventDate"`
	DealType            string             `json:"dealType"`
	DealConfig          deal.Config        `json:"dealConfig"`
	Flags               deal.Flags         `json:"flags"`
	TimelineOverrides   timeline.Overrides `json:"timelineOverrides"`
	AdminApprovalStatus string             `json:"adminApprovalStatus"`
	AllTracksApproved   bool               `json:"allTracksApproved"`
	SchulsongReleasedAt *time.Time         `json:"schulsongReleasedAt,omitempty"`
	EstimatedChildren   int                `json:"estimatedChildren"`
	Status              string             `json:"status"`
	Fee                 *deal.FeeBreakdown `json:"fee"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// EventListResponse is a page of events.
type EventListResponse struct {
	Items      []EventResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// ListEventsRequest filters the admin event list.
type ListEventsRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=active cancelled"`
	DealType string `form:"dealType" validate:"omitempty,oneof=mimu mimu_scs schus schus_xl"`
	From     string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	Search   string `form:"search" validate:"max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

// CreateEventRequest is a manual admin event entry.
type CreateEventRequest struct {
	SchoolName        string       `json:"schoolName" validate:"required,min=2,max=200"`
	EventDate         string       `json:"eventDate" validate:"required,datetime=2006-01-02"`
	DealType          string       `json:"dealType" validate:"required,oneof=mimu mimu_scs schus schus_xl"`
	DealConfig        *deal.Config `json:"dealConfig"`
	EstimatedChildren int          `json:"estimatedChildren" validate:"min=0,max=5000"`
	LegacyBookingID   string       `json:"legacyBookingId" validate:"max=64"`
	TeacherName       string       `json:"teacherName" validate:"max=200"`
	TeacherEmail      string       `json:"teacherEmail" validate:"omitempty,email"`
}

// UpdateDealRequest replaces the deal type and config of an event.
type UpdateDealRequest struct {
	DealType          string      `json:"dealType" validate:"required,oneof=mimu mimu_scs schus schus_xl"`
	DealConfig        deal.Config `json:"dealConfig"`
	EstimatedChildren *int        `json:"estimatedChildren" validate:"omitempty,min=0,max=5000"`
}

// FeeResponse is the computed fee of an event. Fee is null for flat-fee packages.
type FeeResponse struct {
	EventID           string             `json:"eventId"`
	DealType          string             `json:"dealType"`
	EstimatedChildren int                `json:"estimatedChildren"`
	Fee               *deal.FeeBreakdown `json:"fee"`
}

// ThresholdView is one effective threshold.
type ThresholdView struct {
	Key        timeline.ThresholdKey `json:"key"`
	Days       int                   `json:"days"`
	Default    int                   `json:"default"`
	Overridden bool                  `json:"overridden"`
	Date       string                `json:"date"`
}

// TimelineResponse shows the derived milestones of an event.
type TimelineResponse struct {
	EventID         string          `json:"eventId"`
	EventDate       string          `json:"eventDate"`
	Thresholds      []ThresholdView `json:"thresholds"`
	EarlyBirdOpen   bool            `json:"earlyBirdOpen"`
	MerchandiseOpen bool            `json:"merchandiseOpen"`
}

// AssignStaffRequest assigns a staff member or engineer.
type AssignStaffRequest struct {
	StaffID string `json:"staffId" validate:"required,max=128"`
	Role    string `json:"role" validate:"required,oneof=staff engineer"`
}

// StaffResponse is one assignment.
type StaffResponse struct {
	StaffID    string    `json:"staffId"`
	Role       string    `json:"role"`
	AssignedAt time.Time `json:"assignedAt"`
}

// AddTeacherRequest links a teacher to an event.
type AddTeacherRequest struct {
	Name  string `json:"name" validate:"max=200"`
	Email string `json:"email" validate:"required,email"`
}

// TeacherResponse is one linked teacher.
type TeacherResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SimplybookBookingRequest is the booking webhook payload.
type SimplybookBookingRequest struct {
	BookingID         string `json:"bookingId" validate:"required,numeric,max=32"`
	SchoolName        string `json:"schoolName" validate:"required,min=2,max=200"`
	ContactName       string `json:"contactName" validate:"max=200"`
	ContactEmail      string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone      string `json:"contactPhone" validate:"max=40"`
	EventDate         string `json:"eventDate" validate:"required,datetime=2006-01-02"`
	EstimatedChildren int    `json:"estimatedChildren" validate:"min=0,max=5000"`
	DealType          string `json:"dealType" validate:"omitempty,oneof=mimu mimu_scs schus schus_xl"`
	IsKita            bool   `json:"isKita"`
	LegacyBookingID   string `json:"legacyBookingId" validate:"max=64"`
}

// IntakeResponse reports the event for a booking and whether it was new.
type IntakeResponse struct {
	Event   EventResponse `json:"event"`
	Created bool          `json:"created"`
}

// TeacherEventResponse is an event as its teachers see it.
type TeacherEventResponse struct {
	EventID             string              `json:"eventId"`
	SchoolName          string              `json:"schoolName"`
	EventDate           string              `json:"eventDate"`
	Flags               deal.Flags          `json:"flags"`
	AdminApprovalStatus string              `json:"adminApprovalStatus"`
	Registrations       int                 `json:"registrations"`
	Milestones          timeline.Milestones `json:"milestones"`
}

// ParentOverviewResponse is an event as a registered parent sees it.
type ParentOverviewResponse struct {
	EventID             string    `json:"eventId"`
	SchoolName          string    `json:"schoolName"`
	EventDate           string    `json:"eventDate"`
	IsSchulsong         bool      `json:"isSchulsong"`
	EarlyBirdOpen       bool      `json:"earlyBirdOpen"`
	EarlyBirdDeadline   string    `json:"earlyBirdDeadline"`
	MerchandiseOpen     bool      `json:"merchandiseOpen"`
	MerchandiseDeadline string    `json:"merchandiseDeadline"`
	HasMerchOrder       bool      `json:"hasMerchOrder"`
	CheckedAt           time.Time `json:"checkedAt"`
}
