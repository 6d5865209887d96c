package service

import (
	"context"
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"

	"minimusiker_backend/internal/schoolevents/deal"
	"minimusiker_backend/internal/schoolevents/repository"
	"minimusiker_backend/internal/schoolevents/timeline"
	"minimusiker_backend/internal/schoolevents/transport"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/httpkit"
)

const (
	defaultQRSize = 512
	minQRSize     = 128
	maxQRSize     = 2048
)

// ListTeacherEvents lists the active events a teacher is linked to.
func (s *Service) ListTeacherEvents(ctx context.Context, email string) ([]transport.TeacherEventResponse, error) {
	items, err := s.repo.ListByTeacherEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	resp := make([]transport.TeacherEventResponse, 0, len(items))
	for _, e := range items {
		view, err := s.teacherView(ctx, e)
		if err != nil {
			return nil, err
		}
		resp = append(resp, view)
	}
	return resp, nil
}

// GetTeacherEvent returns one event for a linked teacher.
func (s *Service) GetTeacherEvent(ctx context.Context, ref string, id httpkit.Identity) (transport.TeacherEventResponse, error) {
	e, err := s.authorized(ctx, ref, id)
	if err != nil {
		return transport.TeacherEventResponse{}, err
	}
	return s.teacherView(ctx, e)
}

func (s *Service) teacherView(ctx context.Context, e repository.Event) (transport.TeacherEventResponse, error) {
	registrations, err := s.repo.CountRegistrations(ctx, e.ID)
	if err != nil {
		return transport.TeacherEventResponse{}, err
	}
	return transport.TeacherEventResponse{
		EventID:    e.EventID,
		SchoolName: e.SchoolName,
		EventDate:  e.EventDate.Format(transport.DateLayout),
		Flags: deal.Flags{
			IsMinimusikertag: e.IsMinimusikertag,
			IsPlus:           e.IsPlus,
			IsKita:           e.IsKita,
			IsSchulsong:      e.IsSchulsong,
		},
		AdminApprovalStatus: e.AdminApprovalStatus,
		Registrations:       registrations,
		Milestones:          timeline.Build(e.EventDate, timeline.ParseOverrides(e.TimelineOverrides)),
	}, nil
}

// ParentOverview returns the ordering windows of an event for a registered parent.
func (s *Service) ParentOverview(ctx context.Context, ref string, id httpkit.Identity) (transport.ParentOverviewResponse, error) {
	e, err := s.authorized(ctx, ref, id)
	if err != nil {
		return transport.ParentOverviewResponse{}, err
	}

	hasOrder, err := s.repo.HasMerchOrder(ctx, e.ID, id.Email())
	if err != nil {
		return transport.ParentOverviewResponse{}, err
	}

	now := s.today()
	milestones := timeline.Build(e.EventDate, timeline.ParseOverrides(e.TimelineOverrides))
	return transport.ParentOverviewResponse{
		EventID:             e.EventID,
		SchoolName:          e.SchoolName,
		EventDate:           e.EventDate.Format(transport.DateLayout),
		IsSchulsong:         e.IsSchulsong,
		EarlyBirdOpen:       milestones.EarlyBirdOpen(now),
		EarlyBirdDeadline:   milestones.EarlyBirdDeadline.Format(transport.DateLayout),
		MerchandiseOpen:     milestones.MerchandiseOpen(now),
		MerchandiseDeadline: milestones.MerchandiseDeadline.Format(transport.DateLayout),
		HasMerchOrder:       hasOrder,
		CheckedAt:           now,
	}, nil
}

// RegistrationQR renders a PNG QR code pointing parents at the event's
// registration page.
func (s *Service) RegistrationQR(ctx context.Context, ref string, size int) ([]byte, string, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	if size == 0 {
		size = defaultQRSize
	}
	if size < minQRSize {
		size = minQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	target := s.appBaseURL + "/register/" + url.PathEscape(e.EventID)
	png, err := qrcode.Encode(target, qrcode.Medium, size)
	if err != nil {
		return nil, "", fmt.Errorf("encode registration qr: %w", err)
	}
	return png, e.EventID + "-qr.png", nil
}

func (s *Service) authorized(ctx context.Context, ref string, id httpkit.Identity) (repository.Event, error) {
	e, err := s.resolveRecord(ctx, ref)
	if err != nil {
		return repository.Event{}, err
	}
	ev := toRef(e)
	if err := eventref.Authorize(ctx, s, &ev, id); err != nil {
		return repository.Event{}, err
	}
	return e, nil
}
