package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type automatedEmailData struct {
	baseEmailData
	Body template.HTML
}

// BookingConfirmationData fills the teacher booking confirmation.
type BookingConfirmationData struct {
	TeacherName string
	SchoolName  string
	EventDate   string
	EventID     string
	PortalURL   string
}

type bookingConfirmationEmailData struct {
	baseEmailData
	BookingConfirmationData
}

const subjectBookingConfirmationFmt = "Ihr Minimusikertag am %s ist gebucht"

// RenderAutomated wraps an already-rendered template body in the shared layout.
// body is trusted HTML authored by admins.
func RenderAutomated(subject, body string) (string, error) {
	return renderEmailTemplate("automated.html", automatedEmailData{
		baseEmailData: baseEmailData{Title: subject},
		Body:          template.HTML(body),
	})
}

// RenderBookingConfirmation renders the teacher confirmation sent on booking intake.
func RenderBookingConfirmation(data BookingConfirmationData) (Message, error) {
	content, err := renderEmailTemplate("booking_confirmation.html", bookingConfirmationEmailData{
		baseEmailData: baseEmailData{
			Title:      "Buchung bestätigt",
			Heading:    "Ihre Buchung ist bestätigt",
			Subheading: data.SchoolName,
			CTALabel:   "Zum Lehrerportal",
			CTAURL:     data.PortalURL,
		},
		BookingConfirmationData: data,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: fmt.Sprintf(subjectBookingConfirmationFmt, data.EventDate),
		HTML:    content,
	}, nil
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
