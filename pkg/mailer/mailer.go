// Package mailer sends transactional email through SMTP, SendGrid or, in
// development, the log.
package mailer

import (
	"context"
	"errors"
	"net/mail"
)

var ErrNoRecipient = errors.New("mail has no recipient")

type Message struct {
	To       mail.Address
	Subject  string
	TextBody string
	HTMLBody string
}

func (m Message) validate() error {
	if m.To.Address == "" {
		return ErrNoRecipient
	}
	return nil
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	From           string
	FromName       string
	SubjectPrefix  string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SendGridAPIKey string
}
