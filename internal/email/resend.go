package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"minimusiker_backend/platform/apperr"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	apiKey    string
	fromName  string
	fromEmail string
	endpoint  string
	client    *http.Client
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type resendEmailRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Headers     map[string]string  `json:"headers,omitempty"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendEmailResponse struct {
	ID string `json:"id"`
}

// NewResendSender creates a sender posting to the Resend API.
func NewResendSender(apiKey, fromName, fromEmail string, client *http.Client) *ResendSender {
	return &ResendSender{
		apiKey:    apiKey,
		fromName:  fromName,
		fromEmail: fromEmail,
		endpoint:  resendEndpoint,
		client:    client,
	}
}

func (r *ResendSender) from() string {
	if r.fromName == "" {
		return r.fromEmail
	}
	return fmt.Sprintf("%s <%s>", r.fromName, r.fromEmail)
}

// Send posts one message and returns the Resend message id.
func (r *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	payload := resendEmailRequest{
		From:    r.from(),
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Headers: msg.Headers,
	}
	for _, att := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, resendAttachment{
			Filename: att.FileName,
			Content:  base64.StdEncoding.EncodeToString(att.Content),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", apperr.Transport("email provider unreachable", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", apperr.RateLimited("email provider rate limit", fmt.Errorf("resend status %d: %s", resp.StatusCode, string(data)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperr.Transport("email send failed", fmt.Errorf("resend status %d: %s", resp.StatusCode, string(data)))
	}

	var decoded resendEmailResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", nil
	}
	return decoded.ID, nil
}
