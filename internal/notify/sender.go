package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/tenderwatch/internal/model"
	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned when SMTP user, password or recipient is missing
var ErrNotConfigured = errors.New("smtp credentials or recipient missing")

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends HTML mail to a single recipient over an authenticated,
// TLS-protected SMTP session
type SMTPSender struct {
	cfg     model.SMTPConfig
	timeout time.Duration
}

// NewSMTPSender creates a sender for cfg
func NewSMTPSender(cfg model.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, timeout: 30 * time.Second}
}

// Send delivers msg, or returns ErrNotConfigured without dialing
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if !s.cfg.Configured() {
		return ErrNotConfigured
	}

	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Pass),
		mail.WithTimeout(s.timeout),
	}
	if s.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (s *SMTPSender) buildMessage(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.User); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := m.To(s.cfg.To); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}
