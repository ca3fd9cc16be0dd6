package logger

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/rollbar/rollbar-go"
)

var rollbarEnabled atomic.Bool

// rollbarHandler forwards error level records to Rollbar and then delegates
// to the wrapped handler.
type rollbarHandler struct {
	next  slog.Handler
	attrs []slog.Attr
}

func newRollbarHandler(next slog.Handler, token, environment, service string) *rollbarHandler {
	rollbar.SetToken(token)
	if environment != EMPTY {
		rollbar.SetEnvironment(environment)
	}
	if service != EMPTY {
		rollbar.SetServerHost(service)
	}
	rollbarEnabled.Store(true)
	return &rollbarHandler{next: next}
}

func (h *rollbarHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *rollbarHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelError {
		extras := make(map[string]interface{}, len(h.attrs)+record.NumAttrs())
		var cause error
		for _, a := range h.attrs {
			extras[a.Key] = a.Value.Any()
		}
		record.Attrs(func(a slog.Attr) bool {
			if err, ok := a.Value.Any().(error); ok && cause == nil {
				cause = err
			}
			extras[a.Key] = a.Value.Any()
			return true
		})
		if cause == nil {
			cause = errors.New(record.Message)
		}
		rollbar.Error(cause, record.Message, extras)
	}
	return h.next.Handle(ctx, record)
}

func (h *rollbarHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &rollbarHandler{next: h.next.WithAttrs(attrs), attrs: merged}
}

func (h *rollbarHandler) WithGroup(name string) slog.Handler {
	return &rollbarHandler{next: h.next.WithGroup(name), attrs: h.attrs}
}

func flushRollbar() {
	if rollbarEnabled.Load() {
		rollbar.Wait()
	}
}
