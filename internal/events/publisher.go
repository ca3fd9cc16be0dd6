package events

import (
	"context"
	"time"

	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/kafka"
	"tutorhub/pkg/logger"
)

// Publisher ships events after the write that produced them has committed.
// Delivery failures are logged and never fail the request.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer producer
	source   string
	timeout  time.Duration
	log      *logger.Logger
}

func NewKafkaPublisher(p producer, source string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: p,
		source:   source,
		timeout:  5 * time.Second,
		log:      log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) {
	correlationID := httputil.RequestIDFrom(ctx)

	msg, err := kafka.NewMessage().
		WithKey(e.AggregateID).
		WithValue(e.Payload).
		WithEventType(e.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(correlationID).
		Build()
	if err != nil {
		p.log.Error("Failed to encode event",
			"event_type", e.Type,
			"aggregate_id", e.AggregateID,
			"error", err,
		)
		return
	}

	// The request may already be finishing; give the write its own deadline.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.producer.Publish(pubCtx, msg); err != nil {
		p.log.Error("Failed to publish event",
			"event_type", e.Type,
			"aggregate_id", e.AggregateID,
			"event_id", msg.EventID(),
			"request_id", correlationID,
			"error", err,
		)
	}
}

// NopPublisher drops events. Used when KAFKA_ENABLED is false.
type NopPublisher struct {
	log *logger.Logger
}

func NewNopPublisher(log *logger.Logger) *NopPublisher {
	return &NopPublisher{log: log}
}

func (p *NopPublisher) Publish(_ context.Context, e Event) {
	if p.log != nil {
		p.log.Debug("Event publishing disabled, dropping event",
			"event_type", e.Type,
			"aggregate_id", e.AggregateID,
		)
	}
}
