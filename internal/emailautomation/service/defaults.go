package service

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"minimusiker_backend/internal/emailautomation/transport"
)

//go:embed defaults.yaml
var defaultTemplatesYAML []byte

type defaultTemplates struct {
	Templates []defaultTemplate `yaml:"templates"`
}

type defaultTemplate struct {
	Name                   string   `yaml:"name"`
	Audience               []string `yaml:"audience"`
	TriggerType            string   `yaml:"triggerType"`
	TriggerDays            int      `yaml:"triggerDays"`
	TriggerHour            *int     `yaml:"triggerHour"`
	FilterIsMinimusikertag *bool    `yaml:"filterIsMinimusikertag"`
	FilterIsPlus           *bool    `yaml:"filterIsPlus"`
	FilterIsSchulsong      *bool    `yaml:"filterIsSchulsong"`
	FilterIsKita           *bool    `yaml:"filterIsKita"`
	Subject                string   `yaml:"subject"`
	Body                   string   `yaml:"body"`
}

func (d defaultTemplate) request() transport.TemplateRequest {
	return transport.TemplateRequest{
		Name:                   d.Name,
		Audience:               d.Audience,
		TriggerType:            d.TriggerType,
		TriggerDays:            d.TriggerDays,
		TriggerHour:            d.TriggerHour,
		FilterIsMinimusikertag: d.FilterIsMinimusikertag,
		FilterIsPlus:           d.FilterIsPlus,
		FilterIsSchulsong:      d.FilterIsSchulsong,
		FilterIsKita:           d.FilterIsKita,
		Subject:                d.Subject,
		BodyHTML:               d.Body,
	}
}

func loadDefaultTemplates() ([]transport.TemplateRequest, error) {
	var doc defaultTemplates
	if err := yaml.Unmarshal(defaultTemplatesYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse default templates: %w", err)
	}
	out := make([]transport.TemplateRequest, len(doc.Templates))
	for i, d := range doc.Templates {
		out[i] = d.request()
	}
	return out, nil
}

// SeedDefaults inserts the built-in templates whose names are not taken yet.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	defaults, err := loadDefaultTemplates()
	if err != nil {
		return 0, err
	}

	created := 0
	for _, req := range defaults {
		params, err := templateParams(req)
		if err != nil {
			return created, fmt.Errorf("default template %q: %w", req.Name, err)
		}
		inserted, err := s.repo.SeedTemplate(ctx, params)
		if err != nil {
			return created, err
		}
		if inserted {
			created++
		}
	}
	if created > 0 {
		s.log.Info("seeded default email templates", "count", created)
	}
	return created, nil
}
