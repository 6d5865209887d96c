package service

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"minimusiker_backend/internal/audio/pipeline"
	"minimusiker_backend/internal/email"
	"minimusiker_backend/internal/emailautomation/repository"
	"minimusiker_backend/internal/emailautomation/transport"
	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
)

// RunForEvent sends a template to every recipient of one event. It is the
// manual trigger used by admins; inactive templates may be run this way.
func (s *Service) RunForEvent(ctx context.Context, templateID uuid.UUID, req transport.RunRequest) (transport.BulkResponse, error) {
	t, err := s.repo.GetTemplate(ctx, templateID)
	if err != nil {
		return transport.BulkResponse{}, err
	}
	ev, err := s.resolver.Resolve(ctx, req.Event)
	if err != nil {
		return transport.BulkResponse{}, err
	}
	if !EventMatchesTemplate(ev, t) {
		return transport.BulkResponse{}, apperr.Validation("template filters do not match this event")
	}
	return s.run(ctx, t, ev, SendOptions{ForceResend: req.ForceResend})
}

// RunDuePair sends one scheduled (template, event) pair. The template must
// still be active and match the event when the pair is executed.
func (s *Service) RunDuePair(ctx context.Context, templateID, eventID uuid.UUID) (transport.BulkResponse, error) {
	t, err := s.repo.GetTemplate(ctx, templateID)
	if err != nil {
		return transport.BulkResponse{}, err
	}
	ev, err := s.resolver.Resolve(ctx, eventID.String())
	if err != nil {
		return transport.BulkResponse{}, err
	}
	if !t.Active || !EventMatchesTemplate(ev, t) {
		s.log.Info("due pair no longer applies", "templateId", t.ID, "eventId", ev.EventID)
		return transport.BulkResponse{TemplateID: t.ID, EventID: ev.EventID, Results: []transport.SendResult{}}, nil
	}
	return s.run(ctx, t, ev, SendOptions{})
}

func (s *Service) run(ctx context.Context, t repository.Template, ev *eventref.Event, opts SendOptions) (transport.BulkResponse, error) {
	if ev.Status == eventref.StatusCancelled {
		return transport.BulkResponse{}, apperr.Conflict("event is cancelled")
	}
	recipients, err := s.GetRecipientsForEvent(ctx, t, ev)
	if err != nil {
		return transport.BulkResponse{}, err
	}
	return s.SendBulk(ctx, t, ev, recipients, opts), nil
}

const resolveConcurrency = 8

// ListDuePairs returns every active scheduled template paired with each
// matching active event whose send day is today in the configured zone.
func (s *Service) ListDuePairs(ctx context.Context, now time.Time) ([]transport.DuePair, error) {
	templates, err := s.repo.ListTemplates(ctx, repository.ListTemplatesParams{ActiveOnly: true, TriggerType: TriggerScheduled})
	if err != nil {
		return nil, err
	}
	pairs := make([]transport.DuePair, 0)
	if len(templates) == 0 {
		return pairs, nil
	}

	local := now.In(s.loc)
	minDays, maxDays := templates[0].TriggerDays, templates[0].TriggerDays
	for _, t := range templates[1:] {
		minDays = min(minDays, t.TriggerDays)
		maxDays = max(maxDays, t.TriggerDays)
	}
	today := calendarDay(local)
	ids, err := s.repo.ListActiveEventIDs(ctx, today.AddDate(0, 0, -maxDays), today.AddDate(0, 0, -minDays))
	if err != nil {
		return nil, err
	}

	resolved := make([]*eventref.Event, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			ev, err := s.resolver.Resolve(gctx, id.String())
			if apperr.Is(err, apperr.KindNotFound) {
				return nil
			}
			resolved[i] = ev
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, ev := range resolved {
		if ev == nil {
			continue
		}
		for _, t := range templates {
			if EventMatchesTemplate(ev, t) && IsDue(t, ev.EventDate, local) {
				pairs = append(pairs, transport.DuePair{TemplateID: t.ID, EventID: ev.ID})
			}
		}
	}
	return pairs, nil
}

// Subscribe registers the event-driven sends on the bus.
func (s *Service) Subscribe(bus events.Bus) {
	bus.Subscribe(events.EventStageChanged{}.EventName(), events.HandlerFunc(s.handleStageChanged))
	bus.Subscribe(events.BookingReceived{}.EventName(), events.HandlerFunc(s.handleBookingReceived))
}

// handleStageChanged fires the on_release templates once an event's audio
// is released.
func (s *Service) handleStageChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(events.EventStageChanged)
	if !ok || changed.To != string(pipeline.StageReleased) {
		return nil
	}

	ev, err := s.resolver.Resolve(ctx, changed.EventRecordID.String())
	if err != nil {
		return err
	}
	templates, err := s.repo.ListTemplates(ctx, repository.ListTemplatesParams{ActiveOnly: true, TriggerType: TriggerOnRelease})
	if err != nil {
		return err
	}

	for _, t := range templates {
		if !EventMatchesTemplate(ev, t) {
			continue
		}
		if _, err := s.run(ctx, t, ev, SendOptions{}); err != nil {
			s.log.Error("release email failed", "templateId", t.ID, "eventId", ev.EventID, "error", err)
		}
	}
	return nil
}

// handleBookingReceived confirms a new booking to the school contact.
func (s *Service) handleBookingReceived(ctx context.Context, event events.Event) error {
	booking, ok := event.(events.BookingReceived)
	if !ok || booking.ContactEmail == "" {
		return nil
	}

	msg, err := email.RenderBookingConfirmation(email.BookingConfirmationData{
		TeacherName: booking.ContactName,
		SchoolName:  booking.SchoolName,
		EventDate:   displayDate(booking.EventDate),
		EventID:     booking.EventID,
		PortalURL:   s.appBaseURL + "/teacher",
	})
	if err != nil {
		return err
	}
	msg.To = booking.ContactEmail

	if _, err := s.sender.Send(ctx, msg); err != nil {
		s.log.Warn("booking confirmation failed", "eventId", booking.EventID, "recipient", booking.ContactEmail, "error", err)
		s.metrics.EmailSend(repository.LogStatusFailed)
		return nil
	}
	s.metrics.EmailSend(repository.LogStatusSent)
	s.log.Info("booking confirmation sent", "eventId", booking.EventID, "recipient", booking.ContactEmail)
	return nil
}

// displayDate reformats an ISO date for German readers.
func displayDate(iso string) string {
	d, err := time.Parse(isoDateLayout, iso)
	if err != nil {
		return iso
	}
	return d.Format(dateLayout)
}

func audienceValid(audience []string) bool {
	if len(audience) == 0 {
		return false
	}
	for _, role := range audience {
		if !slices.Contains([]string{repository.RoleTeacher, repository.RoleParent, repository.RoleNonBuyer}, role) {
			return false
		}
	}
	return true
}
