package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"minimusiker_backend/internal/emailautomation/repository"
	"minimusiker_backend/internal/emailautomation/transport"
	"minimusiker_backend/platform/apperr"
	"minimusiker_backend/platform/sanitize"
)

// ListTemplates returns every template
func (s *Service) ListTemplates(ctx context.Context) ([]transport.TemplateResponse, error) {
	items, err := s.repo.ListTemplates(ctx, repository.ListTemplatesParams{})
	if err != nil {
		return nil, err
	}
	out := make([]transport.TemplateResponse, len(items))
	for i, t := range items {
		out[i] = toTemplateResponse(t)
	}
	return out, nil
}

// GetTemplate returns one template
func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (transport.TemplateResponse, error) {
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	return toTemplateResponse(t), nil
}

// CreateTemplate validates and stores a new template
func (s *Service) CreateTemplate(ctx context.Context, req transport.TemplateRequest) (transport.TemplateResponse, error) {
	params, err := templateParams(req)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	t, err := s.repo.CreateTemplate(ctx, params)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	s.log.Info("email template created", "templateId", t.ID, "name", t.Name)
	return toTemplateResponse(t), nil
}

// UpdateTemplate replaces a template
func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, req transport.TemplateRequest) (transport.TemplateResponse, error) {
	params, err := templateParams(req)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	t, err := s.repo.UpdateTemplate(ctx, id, params)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	return toTemplateResponse(t), nil
}

// DeleteTemplate removes a template without send history
func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTemplate(ctx, id)
}

// PreviewTemplate renders a template for the first recipient of an event
// and lists every recipient it would reach.
func (s *Service) PreviewTemplate(ctx context.Context, id uuid.UUID, ref string) (transport.PreviewResponse, error) {
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return transport.PreviewResponse{}, err
	}
	ev, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return transport.PreviewResponse{}, err
	}
	recipients, err := s.GetRecipientsForEvent(ctx, t, ev)
	if err != nil {
		return transport.PreviewResponse{}, err
	}

	var sample repository.Recipient
	switch {
	case len(recipients) > 0:
		sample = recipients[0]
	case len(t.Audience) > 0:
		sample.Role = t.Audience[0]
	}
	subject, content, err := s.render(t, ev, sample)
	if err != nil {
		return transport.PreviewResponse{}, err
	}

	resp := transport.PreviewResponse{
		TemplateID: t.ID,
		EventID:    ev.EventID,
		Matches:    EventMatchesTemplate(ev, t),
		Subject:    subject,
		HTML:       content,
		Recipients: make([]transport.RecipientResponse, len(recipients)),
	}
	for i, r := range recipients {
		resp.Recipients[i] = transport.RecipientResponse{Email: r.Email, Name: r.Name, ChildName: r.ChildName, Role: r.Role}
	}
	return resp, nil
}

// ListLogs returns the send history, optionally narrowed to one event
func (s *Service) ListLogs(ctx context.Context, ref string, templateID *uuid.UUID, limit int) ([]transport.LogResponse, error) {
	params := repository.ListLogsParams{TemplateID: templateID, Limit: limit}
	if ref != "" {
		ev, err := s.resolver.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		params.EventID = &ev.ID
	}

	items, err := s.repo.ListLogs(ctx, params)
	if err != nil {
		return nil, err
	}
	out := make([]transport.LogResponse, len(items))
	for i, l := range items {
		out[i] = transport.LogResponse{
			ID:                l.ID,
			TemplateID:        l.TemplateID,
			EventID:           l.EventID,
			RecipientEmail:    l.RecipientEmail,
			Status:            l.Status,
			ProviderMessageID: l.ProviderMessageID,
			Error:             l.Error,
			CreatedAt:         l.CreatedAt,
		}
	}
	return out, nil
}

func templateParams(req transport.TemplateRequest) (repository.TemplateParams, error) {
	name := sanitize.Line(req.Name)
	if name == "" {
		return repository.TemplateParams{}, apperr.Validation("name is required")
	}
	if !audienceValid(req.Audience) {
		return repository.TemplateParams{}, apperr.Validation("audience must list teacher, parent or non-buyer")
	}
	if req.TriggerHour != nil && (*req.TriggerHour < 0 || *req.TriggerHour > 23) {
		return repository.TemplateParams{}, apperr.Validation("trigger hour must be between 0 and 23")
	}

	triggerType := req.TriggerType
	if triggerType == "" {
		triggerType = TriggerScheduled
	}
	if triggerType != TriggerScheduled && triggerType != TriggerOnRelease {
		return repository.TemplateParams{}, apperr.Validation("unknown trigger type")
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" || strings.TrimSpace(req.BodyHTML) == "" {
		return repository.TemplateParams{}, apperr.Validation("subject and body are required")
	}
	if _, err := renderText(subject, nil); err != nil {
		return repository.TemplateParams{}, apperr.Validation("template subject is invalid: " + err.Error())
	}
	if _, err := renderText(req.BodyHTML, nil); err != nil {
		return repository.TemplateParams{}, apperr.Validation("template body is invalid: " + err.Error())
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	return repository.TemplateParams{
		Name:                   name,
		Audience:               dedupe(req.Audience),
		TriggerType:            triggerType,
		TriggerDays:            req.TriggerDays,
		TriggerHour:            req.TriggerHour,
		FilterIsMinimusikertag: req.FilterIsMinimusikertag,
		FilterIsPlus:           req.FilterIsPlus,
		FilterIsSchulsong:      req.FilterIsSchulsong,
		FilterIsKita:           req.FilterIsKita,
		Active:                 active,
		Subject:                subject,
		BodyHTML:               req.BodyHTML,
	}, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func toTemplateResponse(t repository.Template) transport.TemplateResponse {
	return transport.TemplateResponse{
		ID:                     t.ID,
		Name:                   t.Name,
		Audience:               t.Audience,
		TriggerType:            t.TriggerType,
		TriggerDays:            t.TriggerDays,
		TriggerHour:            t.TriggerHour,
		FilterIsMinimusikertag: t.FilterIsMinimusikertag,
		FilterIsPlus:           t.FilterIsPlus,
		FilterIsSchulsong:      t.FilterIsSchulsong,
		FilterIsKita:           t.FilterIsKita,
		Active:                 t.Active,
		Subject:                t.Subject,
		BodyHTML:               t.BodyHTML,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
	}
}
