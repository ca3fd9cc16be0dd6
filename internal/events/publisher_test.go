package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/kafka"
	"tutorhub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeProducer) Publish(ctx context.Context, msg kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	f.msgs = append(f.msgs, msg)
	return f.err
}

func TestKafkaPublisher_Publish(t *testing.T) {
	p := &fakeProducer{}
	pub := NewKafkaPublisher(p, "tutorhub-api", logger.Nop())

	ctx := httputil.WithRequestID(context.Background(), "req-1")
	pub.Publish(ctx, Event{
		Type:        TypeBookingApproved,
		AggregateID: "b1",
		Payload:     BookingChanged{BookingID: "b1", Status: "approved"},
	})

	require.Len(t, p.msgs, 1)
	msg := p.msgs[0]
	assert.Equal(t, "b1", msg.Key)
	assert.Equal(t, TypeBookingApproved, msg.EventType())
	assert.Equal(t, "req-1", msg.CorrelationID())
	assert.Equal(t, "tutorhub-api", msg.Headers[kafka.HeaderSource])
	assert.Equal(t, SchemaVersion, msg.Headers[kafka.HeaderSchemaVersion])

	var payload BookingChanged
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "approved", payload.Status)
}

func TestKafkaPublisher_SwallowsErrors(t *testing.T) {
	p := &fakeProducer{err: errors.New("broker down")}
	pub := NewKafkaPublisher(p, "tutorhub-api", logger.Nop())

	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), Event{Type: TypeUserRegistered, AggregateID: "u1", Payload: UserRegistered{}})
	})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	pub.Publish(cancelled, Event{Type: TypeUserRegistered, AggregateID: "u2", Payload: UserRegistered{}})
	assert.Len(t, p.msgs, 2)
}

func TestBookingEventType(t *testing.T) {
	assert.Equal(t, TypeBookingCancelled, BookingEventType("cancelled"))
}
