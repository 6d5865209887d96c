// Package email delivers rendered HTML emails through a transactional provider.
package email

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"minimusiker_backend/platform/config"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte
	FileName string
	MIMEType string
}

// Message is one outgoing email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Headers     map[string]string
	Attachments []Attachment
}

// Sender delivers a message and returns the provider's message id.
// Throttling is reported as an apperr RateLimited error, other provider
// failures as Transport errors.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NoopSender accepts every message without delivering it.
type NoopSender struct{}

func (NoopSender) Send(context.Context, Message) (string, error) {
	return "", nil
}

// NewSender selects the configured provider.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	switch cfg.GetEmailProvider() {
	case "resend":
		client := &http.Client{Timeout: 10 * time.Second}
		return NewResendSender(cfg.GetResendAPIKey(), cfg.GetEmailFromName(), cfg.GetEmailFromAddress(), client), nil
	case "smtp":
		return NewSMTPSender(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(),
			cfg.GetEmailFromName(),
		), nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.GetEmailProvider())
	}
}
