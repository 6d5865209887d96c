package service

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"text/template"
	"time"

	"minimusiker_backend/internal/email"
	"minimusiker_backend/internal/emailautomation/repository"
	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/apperr"
)

const (
	dateLayout    = "02.01.2006"
	isoDateLayout = "2006-01-02"
)

var placeholderPattern = regexp.MustCompile(`{{\s*([A-Za-z_][A-Za-z0-9_]*)\s*}}`)

// render fills the template placeholders for one recipient and wraps the
// body in the shared layout.
func (s *Service) render(t repository.Template, ev *eventref.Event, r repository.Recipient) (string, string, error) {
	data := s.templateData(ev, r)

	subject, err := renderText(t.Subject, data)
	if err != nil {
		return "", "", apperr.Validation("template subject is invalid: " + err.Error())
	}
	body, err := renderText(t.BodyHTML, escaped(data))
	if err != nil {
		return "", "", apperr.Validation("template body is invalid: " + err.Error())
	}

	content, err := email.RenderAutomated(subject, body)
	if err != nil {
		return "", "", err
	}
	return subject, content, nil
}

func (s *Service) templateData(ev *eventref.Event, r repository.Recipient) map[string]string {
	m := ev.Milestones()
	return map[string]string{
		"school_name":            ev.SchoolName,
		"event_date":             formatDate(ev.EventDate),
		"event_id":               ev.EventID,
		"recipient_name":         r.Name,
		"recipient_email":        r.Email,
		"child_name":             r.ChildName,
		"early_bird_deadline":    formatDate(m.EarlyBirdDeadline),
		"merchandise_deadline":   formatDate(m.MerchandiseDeadline),
		"audio_release_date":     formatDate(m.AudioRelease),
		"schulsong_release_date": formatDate(m.SchulsongRelease),
		"portal_url":             s.portalURL(ev, r.Role),
		"registration_url":       s.appBaseURL + "/register/" + url.PathEscape(ev.EventID),
	}
}

func (s *Service) portalURL(ev *eventref.Event, role string) string {
	if role == repository.RoleTeacher {
		return s.appBaseURL + "/teacher/events/" + url.PathEscape(ev.EventID)
	}
	return s.appBaseURL + "/parent/events/" + url.PathEscape(ev.EventID)
}

// renderText accepts both {{name}} and {{.name}} placeholders. Unknown names
// render empty.
func renderText(text string, data map[string]string) (string, error) {
	normalized := placeholderPattern.ReplaceAllString(text, "{{.$1}}")
	parsed, err := template.New("msg").Option("missingkey=zero").Parse(normalized)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := parsed.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func escaped(data map[string]string) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = html.EscapeString(v)
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
