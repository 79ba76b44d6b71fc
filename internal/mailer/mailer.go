package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"venu/internal/model"
)

type Config struct {
	Host     string
	Port     int
	From     string
	Password string
}

type Mailer struct {
	cfg Config
	log *zerolog.Logger
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// Enabled reports whether SMTP is configured. Status emails are best effort
// and the pipeline runs fine without them.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

func (m *Mailer) SendStatusEmail(eventTitle string, status model.Status, recipient string) error {
	if !m.Enabled() {
		m.log.Debug().Str("email", recipient).Msg("SMTP not configured, skipping status email")
		return nil
	}

	var subject, body string
	switch status {
	case model.StatusPending:
		subject = "Registration received"
		body = fmt.Sprintf("Hello!\n\nWe received your registration for \"%s\". It is awaiting review by the organizers; you will get another email once a decision is made.", eventTitle)
	case model.StatusApproved:
		subject = "Registration approved"
		body = fmt.Sprintf("Hello!\n\nYour registration for \"%s\" has been approved. Bring your ticket for scanning at the door. See you there!", eventTitle)
	case model.StatusRejected:
		subject = "Registration update"
		body = fmt.Sprintf("Hello!\n\nUnfortunately your registration for \"%s\" was not approved. Contact the organizers if you believe this is a mistake.", eventTitle)
	default:
		return fmt.Errorf("no email template for status %q", status)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, recipient, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		m.log.Warn().Err(err).Str("email", recipient).Msg("failed to send status email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("email", recipient).Str("status", string(status)).Msg("status email sent")
	return nil
}
