package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/schoolevents/deal"
	"minimusiker_backend/internal/schoolevents/repository"
	"minimusiker_backend/internal/schoolevents/transport"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/phone"
	"minimusiker_backend/platform/sanitize"
)

const sourceSimplybook = "simplybook"

// IngestBooking turns a SimplyBook booking into an event. Repeated deliveries
// of the same booking return the existing event with Created=false.
func (s *Service) IngestBooking(ctx context.Context, req transport.SimplybookBookingRequest, rawPayload string) (transport.IntakeResponse, error) {
	eventDate, err := time.Parse(transport.DateLayout, req.EventDate)
	if err != nil {
		return transport.IntakeResponse{}, apperr.Validation("eventDate must be YYYY-MM-DD")
	}

	booking, err := s.repo.GetBookingBySimplybookID(ctx, req.BookingID)
	found, err := settle(err)
	if err != nil {
		return transport.IntakeResponse{}, err
	}
	if found {
		existing, err := s.repo.GetBySchoolBookingID(ctx, booking.ID)
		if found, err := settle(err); err != nil {
			return transport.IntakeResponse{}, err
		} else if found {
			return transport.IntakeResponse{Event: toResponse(existing), Created: false}, nil
		}
		// The booking row exists without its event: finish the earlier intake.
	} else {
		booking, err = s.createBooking(ctx, req, eventDate, rawPayload)
		if err != nil {
			return transport.IntakeResponse{}, err
		}
	}

	dealType := deal.Type(req.DealType)
	if req.DealType == "" {
		dealType = deal.Mimu
	}
	cfg := deal.Config{IsKita: req.IsKita}
	flags := deal.ToFlags(dealType, cfg)

	var legacyID *string
	if id := strings.TrimSpace(req.LegacyBookingID); id != "" {
		legacyID = &id
	}

	created, err := s.repo.Create(ctx, repository.CreateEventParams{
		EventID:           GenerateEventID(booking.SchoolName, eventDate, sourceSimplybook+":"+booking.SimplybookID),
		LegacyBookingID:   legacyID,
		SchoolBookingID:   &booking.ID,
		SchoolName:        booking.SchoolName,
		EventDate:         eventDate,
		DealType:          string(dealType),
		DealConfig:        cfg.Encode(),
		IsMinimusikertag:  flags.IsMinimusikertag,
		IsPlus:            flags.IsPlus,
		IsKita:            flags.IsKita,
		IsSchulsong:       flags.IsSchulsong,
		EstimatedChildren: booking.EstimatedChildren,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			// A concurrent delivery created the event first.
			existing, getErr := s.repo.GetBySchoolBookingID(ctx, booking.ID)
			if getErr != nil {
				return transport.IntakeResponse{}, getErr
			}
			return transport.IntakeResponse{Event: toResponse(existing), Created: false}, nil
		}
		return transport.IntakeResponse{}, err
	}

	if booking.ContactEmail != "" {
		if _, err := s.repo.AddTeacher(ctx, created.ID, booking.ContactName, booking.ContactEmail); err != nil {
			return transport.IntakeResponse{}, fmt.Errorf("link booking contact: %w", err)
		}
	}

	s.log.Info("booking ingested", "eventId", created.EventID, "simplybookId", booking.SimplybookID)
	s.publish(ctx, events.BookingReceived{
		BaseEvent:     events.NewBaseEvent(),
		EventRecordID: created.ID,
		EventID:       created.EventID,
		SchoolName:    created.SchoolName,
		EventDate:     created.EventDate.Format(transport.DateLayout),
		ContactName:   booking.ContactName,
		ContactEmail:  booking.ContactEmail,
		Source:        sourceSimplybook,
	})

	return transport.IntakeResponse{Event: toResponse(created), Created: true}, nil
}

func (s *Service) createBooking(ctx context.Context, req transport.SimplybookBookingRequest, eventDate time.Time, rawPayload string) (repository.SchoolBooking, error) {
	booking, err := s.repo.CreateBooking(ctx, repository.CreateBookingParams{
		SimplybookID:      req.BookingID,
		SchoolName:        sanitize.Line(req.SchoolName),
		ContactName:       sanitize.Line(req.ContactName),
		ContactEmail:      strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		ContactPhone:      phone.NormalizeE164(req.ContactPhone),
		EventDate:         eventDate,
		EstimatedChildren: req.EstimatedChildren,
		RawPayload:        rawPayload,
	})
	if apperr.Is(err, apperr.KindConflict) {
		return s.repo.GetBookingBySimplybookID(ctx, req.BookingID)
	}
	return booking, err
}
