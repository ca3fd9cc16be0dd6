package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tutorhub/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func header(km kafka.Message, key string) string {
	for _, h := range km.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("booking-1").
		WithValue(map[string]string{"status": "approved"}).
		WithEventType("booking.approved").
		WithSource("tutorhub-api").
		WithCorrelationID("").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "booking-1", msg.Key)
	assert.JSONEq(t, `{"status":"approved"}`, string(msg.Value))
	assert.Equal(t, "booking.approved", msg.EventType())
	assert.NotEmpty(t, msg.EventID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])
	_, hasCorrelation := msg.Headers[HeaderCorrelationID]
	assert.False(t, hasCorrelation)

	_, err = NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.RetryCount())
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.RetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, ClassifyError(nil))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(errors.New("dial tcp: Connection Refused")))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(errors.New("bad template")))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(NewTransientError("smtp", errors.New("421"))))

	assert.True(t, ShouldRetry(errors.New("i/o timeout"), 0, 3))
	assert.False(t, ShouldRetry(errors.New("i/o timeout"), 3, 3))
	assert.True(t, IsPermanent(NewPermanentError("decode", nil)))
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "tutoring.events", log: logger.Nop()}

	var seenTopic string
	p.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
		seenTopic = msg.Topic
		return next(ctx, msg)
	})

	msg, err := NewMessage().WithKey("b1").WithValue("x").WithEventType("booking.created").Build()
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), msg))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "b1", string(w.messages[0].Key))
	assert.Equal(t, "booking.created", header(w.messages[0], HeaderEventType))
	assert.Equal(t, "tutoring.events", seenTopic)

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), msg), ErrProducerClosed)
}

func TestProducer_FailureGoesToDLQ(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	dlq := &fakeWriter{}
	p := &Producer{writer: w, dlqWriter: dlq, topic: "tutoring.events", log: logger.Nop()}

	msg, err := NewMessage().WithKey("b1").WithValue("x").Build()
	require.NoError(t, err)

	err = p.Publish(context.Background(), msg)
	require.Error(t, err)
	require.Len(t, dlq.messages, 1)
	assert.Equal(t, "tutoring.events", header(dlq.messages[0], HeaderOriginalTopic))
	assert.Equal(t, "leader not available", header(dlq.messages[0], HeaderDLQError))
}

func TestConsumer_Process(t *testing.T) {
	msg, err := NewMessage().WithKey("b1").WithValue("x").Build()
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		c := newConsumer(nil, func(context.Context, Message) error { return nil }, logger.Nop())
		assert.NoError(t, c.process(context.Background(), msg))
	})

	t.Run("transient retried then succeeds", func(t *testing.T) {
		calls := 0
		c := newConsumer(nil, func(context.Context, Message) error {
			calls++
			if calls < 3 {
				return NewTransientError("smtp", errors.New("busy"))
			}
			return nil
		}, logger.Nop())
		c.maxRetries = 3

		assert.NoError(t, c.process(context.Background(), msg))
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent goes to DLQ", func(t *testing.T) {
		calls := 0
		dlq := &fakeWriter{}
		c := newConsumer(nil, func(context.Context, Message) error {
			calls++
			return NewPermanentError("deserialization failed", nil)
		}, logger.Nop())
		c.maxRetries = 3
		c.dlqWriter = dlq
		c.topic = "tutoring.events"

		assert.NoError(t, c.process(context.Background(), msg))
		assert.Equal(t, 1, calls)
		require.Len(t, dlq.messages, 1)
	})

	t.Run("dlq failure is reported", func(t *testing.T) {
		c := newConsumer(nil, func(context.Context, Message) error {
			return NewPermanentError("bad", nil)
		}, logger.Nop())
		c.dlqWriter = &fakeWriter{err: errors.New("down")}

		assert.Error(t, c.process(context.Background(), msg))
	})

	t.Run("middleware wraps handler", func(t *testing.T) {
		var order []string
		c := newConsumer(nil, func(context.Context, Message) error {
			order = append(order, "handler")
			return nil
		}, logger.Nop())
		c.Use(func(ctx context.Context, m Message, next MessageHandler) error {
			order = append(order, "outer")
			return next(ctx, m)
		})
		c.Use(func(ctx context.Context, m Message, next MessageHandler) error {
			order = append(order, "inner")
			return next(ctx, m)
		})

		require.NoError(t, c.process(context.Background(), msg))
		assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	})
}
