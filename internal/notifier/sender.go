package notifier

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/dtroode/passkeeper-server/internal/logger"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// TLS modes accepted by SMTPSender.
const (
	TLSModeAuto     = "auto"
	TLSModeStartTLS = "starttls"
	TLSModeSSL      = "ssl"
	TLSModeNone     = "none"
)

// SMTPConfig contains SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLSMode  string
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	cfg    SMTPConfig
	send   func(d *mail.Dialer, m *mail.Message) error
	logger *logger.Logger
}

var _ Sender = (*SMTPSender)(nil)

func NewSMTPSender(cfg SMTPConfig, logger *logger.Logger) *SMTPSender {
	if cfg.TLSMode == "" {
		cfg.TLSMode = TLSModeAuto
	}
	return &SMTPSender{
		cfg: cfg,
		send: func(d *mail.Dialer, m *mail.Message) error {
			return d.DialAndSend(m)
		},
		logger: logger,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.send(s.dialer(), s.message(msg)); err != nil {
		s.logger.Error("SMTP sender: send failed", "to", msg.To, "subject", msg.Subject, "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("SMTP sender: email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (s *SMTPSender) message(msg Message) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	return m
}

func (s *SMTPSender) dialer() *mail.Dialer {
	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.TLSConfig = &tls.Config{
		ServerName: s.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	switch s.cfg.TLSMode {
	case TLSModeSSL:
		d.SSL = true
	case TLSModeNone:
		d.StartTLSPolicy = mail.NoStartTLS
	case TLSModeStartTLS:
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}

	return d
}

// LogSender records dispatches without delivering them.
type LogSender struct {
	logger *logger.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(logger *logger.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("Log sender: email not delivered, SMTP is not configured", "to", msg.To, "subject", msg.Subject)
	return nil
}
