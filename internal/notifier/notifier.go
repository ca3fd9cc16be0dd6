// Package notifier turns domain events into email.
package notifier

import (
	"context"
	"net/mail"

	"tutorhub/internal/events"
	"tutorhub/pkg/kafka"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/mailer"
)

type Notifier struct {
	mailer mailer.Mailer
	log    *logger.Logger
}

func New(m mailer.Mailer, log *logger.Logger) *Notifier {
	return &Notifier{mailer: m, log: log}
}

type cancelledView struct {
	events.BookingChanged
	Recipient events.Contact
	Actor     events.Contact
}

// Handle is a kafka.MessageHandler. Unknown event types are acknowledged and
// skipped; undecodable payloads are permanent failures.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.EventType() {
	case events.TypeUserRegistered:
		var e events.UserRegistered
		if err := msg.DecodeValue(&e); err != nil {
			return err
		}
		return n.send(ctx, e.User, welcomeTemplate, e)

	case events.TypePasswordResetRequested:
		var e events.PasswordResetRequested
		if err := msg.DecodeValue(&e); err != nil {
			return err
		}
		return n.send(ctx, e.User, passwordResetTemplate, e)

	case events.TypeBookingCreated, events.TypeBookingApproved, events.TypeBookingRejected,
		events.TypeBookingCancelled, events.TypeBookingCompleted:
		var e events.BookingChanged
		if err := msg.DecodeValue(&e); err != nil {
			return err
		}
		return n.bookingChanged(ctx, msg.EventType(), e)

	case events.TypeTutorApproved:
		var e events.TutorReviewed
		if err := msg.DecodeValue(&e); err != nil {
			return err
		}
		return n.send(ctx, e.Tutor, tutorApprovedTemplate, e)

	case events.TypeTutorRejected:
		var e events.TutorReviewed
		if err := msg.DecodeValue(&e); err != nil {
			return err
		}
		return n.send(ctx, e.Tutor, tutorRejectedTemplate, e)

	case events.TypeReviewCreated:
		var e events.ReviewCreated
		if err := msg.DecodeValue(&e); err != nil {
			return err
		}
		return n.send(ctx, e.Tutor, reviewCreatedTemplate, e)

	default:
		n.log.Debug("Ignoring event", "event_type", msg.EventType(), "event_id", msg.EventID())
		return nil
	}
}

func (n *Notifier) bookingChanged(ctx context.Context, eventType string, e events.BookingChanged) error {
	switch eventType {
	case events.TypeBookingCreated:
		return n.send(ctx, e.Tutor, bookingCreatedTemplate, e)
	case events.TypeBookingApproved:
		return n.send(ctx, e.Student, bookingApprovedTemplate, e)
	case events.TypeBookingRejected:
		return n.send(ctx, e.Student, bookingRejectedTemplate, e)
	case events.TypeBookingCompleted:
		return n.send(ctx, e.Student, bookingCompletedTemplate, e)
	default:
		view := cancelledView{BookingChanged: e, Recipient: e.Student, Actor: e.Tutor}
		if e.ChangedBy == e.Student.ID {
			view.Recipient, view.Actor = e.Tutor, e.Student
		}
		return n.send(ctx, view.Recipient, bookingCancelledTemplate, view)
	}
}

func (n *Notifier) send(ctx context.Context, to events.Contact, tmpl mailTemplate, data any) error {
	if to.Email == "" {
		n.log.Warn("Skipping mail without recipient address", "recipient_id", to.ID)
		return nil
	}

	subject, body, err := tmpl.render(data)
	if err != nil {
		return kafka.NewPermanentError("render mail template", err)
	}

	err = n.mailer.Send(ctx, mailer.Message{
		To:       mail.Address{Name: to.Name, Address: to.Email},
		Subject:  subject,
		TextBody: body,
	})
	if err != nil {
		return kafka.NewTransientError("send mail", err)
	}
	return nil
}
