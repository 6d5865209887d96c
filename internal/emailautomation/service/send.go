package service

import (
	"context"
	"time"

	"minimusiker_backend/internal/email"
	"minimusiker_backend/internal/emailautomation/repository"
	"minimusiker_backend/internal/emailautomation/transport"
	"minimusiker_backend/internal/events"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
)

const msgAlreadySent = "already sent"

// SendOptions tunes a send.
type SendOptions struct {
	ForceResend bool
}

// SendAutomatedEmail sends one templated email unless a successful send for
// the same template, event and recipient is already on record. Every attempt
// is written to the email log. The returned error is set only when the
// attempt could not be made at all.
func (s *Service) SendAutomatedEmail(ctx context.Context, t repository.Template, ev *eventref.Event, r repository.Recipient, opts SendOptions) (transport.SendResult, error) {
	a, err := s.deliver(ctx, t, ev, r, opts)
	return a.result, err
}

// attempt is the outcome of one delivery. sendErr keeps the provider failure
// so callers can tell throttling apart from other failures.
type attempt struct {
	result  transport.SendResult
	sendErr error
}

func (s *Service) deliver(ctx context.Context, t repository.Template, ev *eventref.Event, r repository.Recipient, opts SendOptions) (attempt, error) {
	res := transport.SendResult{Recipient: r.Email}

	if !opts.ForceResend {
		sent, err := s.repo.HasSent(ctx, t.ID, ev.ID, r.Email)
		if err != nil {
			return attempt{result: res}, err
		}
		if sent {
			res.Status = repository.LogStatusSkipped
			res.Error = msgAlreadySent
			s.record(ctx, t, ev, res, false)
			return attempt{result: res}, nil
		}
	}

	subject, content, err := s.render(t, ev, r)
	if err != nil {
		return attempt{result: s.fail(ctx, t, ev, res, err), sendErr: err}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return attempt{result: res}, err
	}

	messageID, err := s.sender.Send(ctx, email.Message{
		To:      r.Email,
		Subject: subject,
		HTML:    content,
		Headers: map[string]string{"X-Entity-Ref-ID": t.ID.String() + ":" + ev.ID.String()},
	})
	if err != nil {
		return attempt{result: s.fail(ctx, t, ev, res, err), sendErr: err}, nil
	}

	res.Status = repository.LogStatusSent
	res.MessageID = messageID
	if inserted := s.record(ctx, t, ev, res, opts.ForceResend); !inserted {
		s.log.Warn("concurrent send already recorded", "templateId", t.ID, "eventId", ev.EventID, "recipient", r.Email)
	}

	s.publish(ctx, events.EmailSent{
		BaseEvent:     events.NewBaseEvent(),
		EventRecordID: ev.ID,
		EventID:       ev.EventID,
		TemplateID:    t.ID,
		Recipient:     r.Email,
	})
	return attempt{result: res}, nil
}

func (s *Service) fail(ctx context.Context, t repository.Template, ev *eventref.Event, res transport.SendResult, err error) transport.SendResult {
	res.Status = repository.LogStatusFailed
	res.Error = err.Error()
	s.record(ctx, t, ev, res, false)
	return res
}

// record writes the attempt to the email log, the structured log and the
// metrics. Log write failures are logged, never returned.
func (s *Service) record(ctx context.Context, t repository.Template, ev *eventref.Event, res transport.SendResult, replace bool) bool {
	var sendErr error
	if res.Status == repository.LogStatusFailed {
		sendErr = apperr.New(apperr.KindTransport, res.Error)
	}
	s.log.EmailSend(t.ID.String(), ev.EventID, res.Recipient, res.Status, sendErr)
	s.metrics.EmailSend(res.Status)

	params := repository.LogParams{
		TemplateID:     t.ID,
		EventID:        ev.ID,
		RecipientEmail: res.Recipient,
		Status:         res.Status,
		Replace:        replace,
	}
	if res.MessageID != "" {
		params.ProviderMessageID = &res.MessageID
	}
	if res.Error != "" {
		params.Error = &res.Error
	}

	inserted, err := s.repo.InsertLog(context.WithoutCancel(ctx), params)
	if err != nil {
		s.log.Error("failed to write email log", "templateId", t.ID, "eventId", ev.EventID, "recipient", res.Recipient, "error", err)
		return false
	}
	return inserted
}

// SendBulk sends to every recipient in order. Cancellation is checked between
// recipients; processed recipients stay committed and the rest are reported
// as pending. Throttled sends are retried for the same recipient after a
// fixed wait.
func (s *Service) SendBulk(ctx context.Context, t repository.Template, ev *eventref.Event, recipients []repository.Recipient, opts SendOptions) transport.BulkResponse {
	resp := transport.BulkResponse{
		TemplateID: t.ID,
		EventID:    ev.EventID,
		Results:    make([]transport.SendResult, 0, len(recipients)),
	}

	for i, r := range recipients {
		if ctx.Err() != nil {
			resp.Cancelled = true
			resp.Pending = len(recipients) - i
			break
		}

		res, err := s.sendWithRetry(ctx, t, ev, r, opts)
		if err != nil {
			if ctx.Err() != nil {
				resp.Cancelled = true
				resp.Pending = len(recipients) - i
				break
			}
			res = transport.SendResult{Recipient: r.Email, Status: repository.LogStatusFailed, Error: err.Error()}
			s.log.Error("email attempt aborted", "templateId", t.ID, "eventId", ev.EventID, "recipient", r.Email, "error", err)
		}

		switch res.Status {
		case repository.LogStatusSent:
			resp.Sent++
		case repository.LogStatusSkipped:
			resp.Skipped++
		default:
			resp.Failed++
		}
		resp.Results = append(resp.Results, res)
	}

	s.log.Info("bulk email finished",
		"templateId", t.ID,
		"eventId", ev.EventID,
		"sent", resp.Sent,
		"failed", resp.Failed,
		"skipped", resp.Skipped,
		"pending", resp.Pending,
	)
	return resp
}

func (s *Service) sendWithRetry(ctx context.Context, t repository.Template, ev *eventref.Event, r repository.Recipient, opts SendOptions) (transport.SendResult, error) {
	for try := 0; ; try++ {
		a, err := s.deliver(ctx, t, ev, r, opts)
		if err != nil || !apperr.Is(a.sendErr, apperr.KindRateLimited) || try >= s.maxRetries {
			return a.result, err
		}

		s.log.Warn("email provider throttled, retrying", "recipient", r.Email, "attempt", try+1, "wait", s.backoff.String())
		timer := time.NewTimer(s.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return a.result, nil
		case <-timer.C:
		}
	}
}
