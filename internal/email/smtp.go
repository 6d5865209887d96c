package email

import (
	"bytes"
	"context"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"minimusiker_backend/platform/apperr"
)

// SMTPSender delivers through a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) buildMessage(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, apperr.Validation("invalid sender address").WithDetails(err.Error())
	}
	if err := m.To(msg.To); err != nil {
		return nil, apperr.Validation("invalid recipient address").WithDetails(err.Error())
	}
	m.Subject(msg.Subject)
	m.SetMessageID()
	for name, value := range msg.Headers {
		m.SetGenHeader(gomail.Header(name), value)
	}
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	for _, att := range msg.Attachments {
		if err := m.AttachReader(att.FileName, bytes.NewReader(att.Content)); err != nil {
			return nil, apperr.Validation("invalid attachment").WithDetails(err.Error())
		}
	}
	return m, nil
}

// Send delivers one message and returns its Message-ID header.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	m, err := s.buildMessage(msg)
	if err != nil {
		return "", err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return "", apperr.Transport("smtp client", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return "", apperr.Transport("smtp send failed", err)
	}

	return m.GetMessageID(), nil
}
