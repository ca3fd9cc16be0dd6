package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

type SendGridMailer struct {
	key    string
	from   *sgmail.Email
	prefix string
	do     func(ctx context.Context, req rest.Request) (*rest.Response, error)
}

func NewSendGridMailer(cfg Config) *SendGridMailer {
	return &SendGridMailer{
		key:    cfg.SendGridAPIKey,
		from:   sgmail.NewEmail(cfg.FromName, cfg.From),
		prefix: cfg.SubjectPrefix,
		do:     sendgrid.MakeRequestWithContext,
	}
}

func (s *SendGridMailer) build(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.prefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Address))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	if msg.HTMLBody != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}
	return m
}

func (s *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(s.key, sendGridEndpoint, sendGridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.build(msg))

	res, err := s.do(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", msg.To.Address, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send to %s: status %d: %s", msg.To.Address, res.StatusCode, res.Body)
	}
	return nil
}
