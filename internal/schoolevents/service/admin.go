package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/schoolevents/deal"
	"minimusiker_backend/internal/schoolevents/repository"
	"minimusiker_backend/internal/schoolevents/timeline"
	"minimusiker_backend/internal/schoolevents/transport"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/sanitize"
)

const (
	defaultPageSize = 25
	sourceAdmin     = "admin"
)

// ListEvents returns a filtered page of events.
func (s *Service) ListEvents(ctx context.Context, req transport.ListEventsRequest) (transport.EventListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	params := repository.ListParams{
		Status:   req.Status,
		DealType: req.DealType,
		Search:   req.Search,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	}
	var err error
	if params.From, err = parseOptionalDate(req.From); err != nil {
		return transport.EventListResponse{}, err
	}
	if params.To, err = parseOptionalDate(req.To); err != nil {
		return transport.EventListResponse{}, err
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.EventListResponse{}, err
	}

	resp := make([]transport.EventResponse, len(items))
	for i, e := range items {
		resp[i] = toResponse(e)
	}
	return transport.EventListResponse{
		Items:      resp,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// GetEvent returns the admin view of a resolved event.
func (s *Service) GetEvent(ctx context.Context, ref string) (transport.EventResponse, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return transport.EventResponse{}, err
	}
	return toResponse(e), nil
}

// CreateEvent enters an event manually.
func (s *Service) CreateEvent(ctx context.Context, actorID string, req transport.CreateEventRequest) (transport.EventResponse, error) {
	eventDate, err := time.Parse(transport.DateLayout, req.EventDate)
	if err != nil {
		return transport.EventResponse{}, apperr.Validation("eventDate must be YYYY-MM-DD")
	}

	var cfg deal.Config
	if req.DealConfig != nil {
		cfg = *req.DealConfig
	}
	dealType := deal.Type(req.DealType)
	flags := deal.ToFlags(dealType, cfg)

	var legacyID *string
	if id := strings.TrimSpace(req.LegacyBookingID); id != "" {
		legacyID = &id
	}

	schoolName := sanitize.Line(req.SchoolName)
	created, err := s.repo.Create(ctx, repository.CreateEventParams{
		EventID:           GenerateEventID(schoolName, eventDate, sourceAdmin+":"+uuid.NewString()),
		LegacyBookingID:   legacyID,
		SchoolName:        schoolName,
		EventDate:         eventDate,
		DealType:          string(dealType),
		DealConfig:        cfg.Encode(),
		IsMinimusikertag:  flags.IsMinimusikertag,
		IsPlus:            flags.IsPlus,
		IsKita:            flags.IsKita,
		IsSchulsong:       flags.IsSchulsong,
		EstimatedChildren: req.EstimatedChildren,
	})
	if err != nil {
		return transport.EventResponse{}, err
	}

	if req.TeacherEmail != "" {
		if _, err := s.repo.AddTeacher(ctx, created.ID, sanitize.Line(req.TeacherName), req.TeacherEmail); err != nil {
			return transport.EventResponse{}, fmt.Errorf("link teacher: %w", err)
		}
	}

	s.publish(ctx, events.BookingReceived{
		BaseEvent:     events.NewBaseEvent(),
		EventRecordID: created.ID,
		EventID:       created.EventID,
		SchoolName:    created.SchoolName,
		EventDate:     created.EventDate.Format(transport.DateLayout),
		ContactName:   req.TeacherName,
		ContactEmail:  strings.ToLower(req.TeacherEmail),
		Source:        sourceAdmin,
	})
	s.log.Info("event created", "eventId", created.EventID, "actor", actorID)

	return toResponse(created), nil
}

// UpdateDeal replaces deal type and config and re-derives the legacy flags.
func (s *Service) UpdateDeal(ctx context.Context, ref, actorID string, req transport.UpdateDealRequest) (transport.EventResponse, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return transport.EventResponse{}, err
	}

	dealType := deal.Type(req.DealType)
	if !dealType.Valid() {
		return transport.EventResponse{}, apperr.Validation("unknown deal type")
	}
	children := e.EstimatedChildren
	if req.EstimatedChildren != nil {
		children = *req.EstimatedChildren
	}
	for key, amount := range req.DealConfig.CustomFees {
		if !deal.IsFeeKey(key) {
			return transport.EventResponse{}, apperr.Validation(fmt.Sprintf("unknown fee key %q", key))
		}
		if amount < 0 && !deal.IsDiscountKey(key) {
			return transport.EventResponse{}, apperr.Validation(fmt.Sprintf("fee %q must not be negative", key))
		}
		if amount > deal.MaxCustomFeeCents || amount < -deal.MaxCustomFeeCents {
			return transport.EventResponse{}, apperr.Validation(fmt.Sprintf("fee %q is out of range", key))
		}
	}

	flags := deal.ToFlags(dealType, req.DealConfig)
	updated, err := s.repo.UpdateDeal(ctx, e.ID, repository.UpdateDealParams{
		DealType:          string(dealType),
		DealConfig:        req.DealConfig.Encode(),
		IsMinimusikertag:  flags.IsMinimusikertag,
		IsPlus:            flags.IsPlus,
		IsKita:            flags.IsKita,
		IsSchulsong:       flags.IsSchulsong,
		EstimatedChildren: children,
	})
	if err != nil {
		return transport.EventResponse{}, err
	}

	s.publish(ctx, events.DealUpdated{
		BaseEvent:     events.NewBaseEvent(),
		EventRecordID: updated.ID,
		EventID:       updated.EventID,
		DealType:      updated.DealType,
		ActorID:       actorID,
	})
	return toResponse(updated), nil
}

// GetFee computes the fee of an event from its stored deal.
func (s *Service) GetFee(ctx context.Context, ref string) (transport.FeeResponse, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return transport.FeeResponse{}, err
	}
	return transport.FeeResponse{
		EventID:           e.EventID,
		DealType:          e.DealType,
		EstimatedChildren: e.EstimatedChildren,
		Fee:               deal.CalculateFee(deal.Type(e.DealType), deal.ParseConfig(e.DealConfig), e.EstimatedChildren),
	}, nil
}

// UpdateTimelineOverrides merges a sparse patch into the stored overrides.
// A JSON null removes the override for that key.
func (s *Service) UpdateTimelineOverrides(ctx context.Context, ref string, patch map[string]json.RawMessage) (transport.TimelineResponse, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return transport.TimelineResponse{}, err
	}

	current := timeline.ParseOverrides(e.TimelineOverrides)
	next, err := current.Apply(patch)
	if err != nil {
		return transport.TimelineResponse{}, err
	}

	updated, err := s.repo.UpdateTimelineOverrides(ctx, e.ID, next.Encode())
	if err != nil {
		return transport.TimelineResponse{}, err
	}
	return s.timelineFor(updated), nil
}

// GetTimeline returns the effective thresholds and milestone dates.
func (s *Service) GetTimeline(ctx context.Context, ref string) (transport.TimelineResponse, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return transport.TimelineResponse{}, err
	}
	return s.timelineFor(e), nil
}

func (s *Service) timelineFor(e repository.Event) transport.TimelineResponse {
	overrides := timeline.ParseOverrides(e.TimelineOverrides)
	milestones := timeline.Build(e.EventDate, overrides)
	now := s.today()

	views := make([]transport.ThresholdView, 0, len(timeline.Keys()))
	for _, key := range timeline.Keys() {
		_, overridden := overrides[key]
		views = append(views, transport.ThresholdView{
			Key:        key,
			Days:       timeline.GetThreshold(key, overrides),
			Default:    key.Default(),
			Overridden: overridden,
			Date:       timeline.DateFor(e.EventDate, key, overrides).Format(transport.DateLayout),
		})
	}

	return transport.TimelineResponse{
		EventID:         e.EventID,
		EventDate:       e.EventDate.Format(transport.DateLayout),
		Thresholds:      views,
		EarlyBirdOpen:   milestones.EarlyBirdOpen(now),
		MerchandiseOpen: milestones.MerchandiseOpen(now),
	}
}

// CancelEvent marks an event cancelled. Events are never deleted.
func (s *Service) CancelEvent(ctx context.Context, ref string) (transport.EventResponse, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return transport.EventResponse{}, err
	}
	if e.Status == eventref.StatusCancelled {
		return transport.EventResponse{}, apperr.Conflict("event is already cancelled")
	}
	updated, err := s.repo.UpdateStatus(ctx, e.ID, eventref.StatusCancelled)
	if err != nil {
		return transport.EventResponse{}, err
	}
	return toResponse(updated), nil
}

// AssignStaff assigns a staff member or engineer to an event.
func (s *Service) AssignStaff(ctx context.Context, ref string, req transport.AssignStaffRequest) ([]transport.StaffResponse, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AssignStaff(ctx, e.ID, strings.TrimSpace(req.StaffID), req.Role); err != nil {
		return nil, err
	}
	return s.listStaff(ctx, e.ID)
}

// UnassignStaff removes a staff assignment.
func (s *Service) UnassignStaff(ctx context.Context, ref, staffID, role string) error {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return err
	}
	return s.repo.UnassignStaff(ctx, e.ID, staffID, role)
}

// ListStaff lists the staff and engineers of an event.
func (s *Service) ListStaff(ctx context.Context, ref string) ([]transport.StaffResponse, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.listStaff(ctx, e.ID)
}

func (s *Service) listStaff(ctx context.Context, id uuid.UUID) ([]transport.StaffResponse, error) {
	items, err := s.repo.ListStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := make([]transport.StaffResponse, len(items))
	for i, a := range items {
		resp[i] = transport.StaffResponse{StaffID: a.StaffID, Role: a.Role, AssignedAt: a.CreatedAt}
	}
	return resp, nil
}

// AddTeacher links a teacher to an event.
func (s *Service) AddTeacher(ctx context.Context, ref string, req transport.AddTeacherRequest) (transport.TeacherResponse, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return transport.TeacherResponse{}, err
	}
	t, err := s.repo.AddTeacher(ctx, e.ID, sanitize.Line(req.Name), req.Email)
	if err != nil {
		return transport.TeacherResponse{}, err
	}
	return transport.TeacherResponse{ID: t.ID.String(), Name: t.Name, Email: t.Email}, nil
}

// ListTeachers lists the teachers of an event.
func (s *Service) ListTeachers(ctx context.Context, ref string) ([]transport.TeacherResponse, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListTeachers(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	resp := make([]transport.TeacherResponse, len(items))
	for i, t := range items {
		resp[i] = transport.TeacherResponse{ID: t.ID.String(), Name: t.Name, Email: t.Email}
	}
	return resp, nil
}

// UpdatePipelineCache stores the recomputed pipeline fields on the event.
func (s *Service) UpdatePipelineCache(ctx context.Context, eventID uuid.UUID, stage, adminStatus string, allApproved bool, releasedAt *time.Time) error {
	return s.repo.UpdatePipelineCache(ctx, eventID, repository.PipelineCacheParams{
		AdminApprovalStatus: adminStatus,
		AllTracksApproved:   allApproved,
		PipelineStage:       stage,
		SchulsongReleasedAt: releasedAt,
	})
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(transport.DateLayout, raw)
	if err != nil {
		return nil, apperr.Validation("dates must be YYYY-MM-DD")
	}
	return &t, nil
}
