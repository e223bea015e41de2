package apiguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Enqueuer accepts encoded events for delivery by another process.
// queue.Publisher is the Redis implementation.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload []byte) error
}

// Engine is the entry point for the authentication layer: it builds the
// event for every successful authentication and dispatches it according to
// [Config.Dispatch]. Create one with [Builder.Build].
type Engine struct {
	config   Config
	bus      *Bus
	queued   *QueuedDispatcher
	enqueuer Enqueuer
	codec    Codec
	metrics  *Metrics
	logger   *slog.Logger
	closed   atomic.Bool
}

// Authenticated describes the authenticated operation and its observable behavior.
//
// Authenticated builds an [APIKeyAuthenticated] for request and key and
// dispatches it. Construction errors are returned before anything is
// dispatched. When dispatch fails the event is still returned alongside the
// error, since authentication itself already succeeded.
func (e *Engine) Authenticated(ctx context.Context, request any, key *APIKey, opts ...EventOption) (*APIKeyAuthenticated, error) {
	if e == nil || e.closed.Load() {
		return nil, ErrEngineNotReady
	}
	event, err := NewAPIKeyAuthenticated(request, key, opts...)
	if err != nil {
		return nil, err
	}
	return event, e.Dispatch(ctx, event)
}

// Dispatch delivers an already built event.
func (e *Engine) Dispatch(ctx context.Context, event Event) error {
	if e == nil || e.closed.Load() {
		return ErrEngineNotReady
	}
	if event == nil {
		return ErrUnsupportedEventType
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch e.config.Dispatch.Mode {
	case DispatchQueued:
		return e.queued.Dispatch(ctx, event)
	case DispatchExternal:
		return e.enqueue(ctx, event)
	default:
		start := time.Now()
		err := e.bus.Dispatch(ctx, event)
		e.metrics.Observe(MetricDispatchLatency, time.Since(start))
		if err != nil {
			e.logger.Warn("event listener failed",
				slog.String("event_type", event.EventType()),
				slog.String("event_id", event.EventID()),
				slog.String("error", err.Error()),
			)
		}
		return err
	}
}

func (e *Engine) enqueue(ctx context.Context, event Event) error {
	authEvent, ok := event.(*APIKeyAuthenticated)
	if !ok || authEvent == nil {
		return ErrUnsupportedEventType
	}
	payload, err := e.codec.Encode(authEvent)
	if err != nil {
		return err
	}
	if err := e.enqueuer.Enqueue(ctx, payload); err != nil {
		e.metrics.Inc(MetricEventDropped)
		e.logger.Warn("event enqueue failed",
			slog.String("event_id", authEvent.EventID()),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, ErrQueueUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	e.metrics.Inc(MetricEventEnqueued)
	return nil
}

// Listen registers listener for eventType. In DispatchExternal mode nothing
// in this process dispatches to local listeners; register them on a
// queue.Worker instead.
func (e *Engine) Listen(eventType string, listener Listener) {
	if e == nil {
		return
	}
	if e.config.Dispatch.Mode == DispatchExternal {
		e.logger.Warn("listener registered on external-mode engine will not receive events",
			slog.String("event_type", eventType),
		)
	}
	e.bus.Listen(eventType, listener)
}

// OnAuthenticated registers fn for [APIKeyAuthenticated] events.
func (e *Engine) OnAuthenticated(fn func(ctx context.Context, event *APIKeyAuthenticated) error) {
	e.Listen(EventAPIKeyAuthenticated, OnAPIKeyAuthenticated(fn))
}

// Mode returns the configured dispatch mode.
func (e *Engine) Mode() DispatchMode {
	if e == nil {
		return DispatchSync
	}
	return e.config.Dispatch.Mode
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return e.metrics.Snapshot()
}

// QueueDropped returns how many events a DispatchQueued engine dropped
// because its buffer was full.
func (e *Engine) QueueDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.queued.Dropped()
}

// Close drains any queued events. The engine rejects further calls afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.closed.Swap(true) {
		return
	}
	e.queued.Close()
}
