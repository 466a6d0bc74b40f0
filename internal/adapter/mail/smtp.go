package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"gitlab.com/magneto-ui.net/internal/config"
	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
)

var (
	_ secondary.Mailer = (*SMTPMailer)(nil)
	_ secondary.Mailer = (*LogMailer)(nil)
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends plain-text mail. smtp.SendMail upgrades with STARTTLS when offered.
type SMTPMailer struct {
	cfg    *config.MailConfig
	logger primary.Logger
	send   sendFunc
}

func NewSMTPMailer(cfg *config.MailConfig, logger primary.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger, send: smtp.SendMail}
}

func (m *SMTPMailer) Send(_ context.Context, to string, subject string, body string) error {
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{to}, buildMessage(m.cfg.From, to, subject, body)); err != nil {
		m.logger.Error("Failed to send mail", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("failed to send mail: %w", err)
	}
	m.logger.Info("Mail sent", "to", to, "subject", subject)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	// header injection guard
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
	return []byte("To: " + to + "\r\n" +
		"From: " + from + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body)
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct {
	logger primary.Logger
}

func NewLogMailer(logger primary.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to string, subject string, body string) error {
	m.logger.Info("Mail not sent, no SMTP host configured", "to", to, "subject", subject, "body", body)
	return nil
}

// New picks SMTP when a host is configured
func New(cfg *config.MailConfig, logger primary.Logger) secondary.Mailer {
	if cfg.Enabled() {
		return NewSMTPMailer(cfg, logger)
	}
	return NewLogMailer(logger)
}
