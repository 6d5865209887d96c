package service

import (
	"minimusiker_backend/internal/schoolevents/deal"
	"minimusiker_backend/internal/schoolevents/repository"
	"minimusiker_backend/internal/schoolevents/transport"
	"minimusiker_backend/internal/shared/eventref"
)

func toRef(e repository.Event) eventref.Event {
	return eventref.Event{
		ID:                  e.ID,
		EventID:             e.EventID,
		LegacyBookingID:     e.LegacyBookingID,
		SchoolName:          e.SchoolName,
		EventDate:           e.EventDate,
		DealType:            e.DealType,
		IsMinimusikertag:    e.IsMinimusikertag,
		IsPlus:              e.IsPlus,
		IsKita:              e.IsKita,
		IsSchulsong:         e.IsSchulsong,
		TimelineOverrides:   e.TimelineOverrides,
		AdminApprovalStatus: e.AdminApprovalStatus,
		AllTracksApproved:   e.AllTracksApproved,
		PipelineStage:       e.PipelineStage,
		SchulsongReleasedAt: e.SchulsongReleasedAt,
		EstimatedChildren:   e.EstimatedChildren,
		Status:              e.Status,
	}
}

func toResponse(e repository.Event) transport.EventResponse {
	cfg := deal.ParseConfig(e.DealConfig)
	overrides := eventref.Event{TimelineOverrides: e.TimelineOverrides}.Overrides()

	return transport.EventResponse{
		ID:              e.ID.String(),
		EventID:         e.EventID,
		LegacyBookingID: e.LegacyBookingID,
		SchoolName:      e.SchoolName,
		EventDate:       e.EventDate.Format(transport.DateLayout),
		DealType:        e.DealType,
		DealConfig:      cfg,
		Flags: deal.Flags{
			IsMinimusikertag: e.IsMinimusikertag,
			IsPlus:           e.IsPlus,
			IsKita:           e.IsKita,
			IsSchulsong:      e.IsSchulsong,
		},
		TimelineOverrides:   overrides,
		AdminApprovalStatus: e.AdminApprovalStatus,
		AllTracksApproved:   e.AllTracksApproved,
		SchulsongReleasedAt: e.SchulsongReleasedAt,
		EstimatedChildren:   e.EstimatedChildren,
		Status:              e.Status,
		Fee:                 deal.CalculateFee(deal.Type(e.DealType), cfg, e.EstimatedChildren),
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}
