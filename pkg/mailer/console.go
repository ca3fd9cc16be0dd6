package mailer

import (
	"context"
	"sync"

	"tutorhub/pkg/logger"
)

// ConsoleMailer logs mail instead of sending it and keeps what it sent.
type ConsoleMailer struct {
	log  *logger.Logger
	mu   sync.Mutex
	sent []Message
}

func NewConsoleMailer(log *logger.Logger) *ConsoleMailer {
	return &ConsoleMailer{log: log}
}

func (c *ConsoleMailer) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()

	c.log.Info("Mail (console)",
		"to", msg.To.String(),
		"subject", msg.Subject,
		"body", msg.TextBody,
	)
	return nil
}

func (c *ConsoleMailer) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}

// New picks SendGrid when an API key is set, then SMTP, then the console.
func New(cfg Config, log *logger.Logger) Mailer {
	switch {
	case cfg.SendGridAPIKey != "":
		log.Info("Mailer configured", "backend", "sendgrid")
		return NewSendGridMailer(cfg)
	case cfg.SMTPHost != "":
		log.Info("Mailer configured", "backend", "smtp", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return NewSMTPMailer(cfg)
	default:
		log.Warn("No mail backend configured, mail will only be logged")
		return NewConsoleMailer(log)
	}
}
