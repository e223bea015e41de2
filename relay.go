package apiguard

import (
	"context"
	"errors"
	"time"
)

// ErrorHandler receives failures from asynchronous delivery. payload is the
// encoded event as it was read from the buffer or queue.
type ErrorHandler func(ctx context.Context, payload []byte, err error)

// Relay turns an encoded event back into a live one and dispatches it.
// It is the read side shared by [QueuedDispatcher] and queue consumers.
type Relay struct {
	Codec   Codec
	Lookup  KeyLookup
	Next    Dispatcher
	Metrics *Metrics
}

// Deliver decodes payload, resolves its key through Lookup, and dispatches
// the rehydrated event to Next. Errors from any step are returned unchanged;
// callers decide whether to log, count, or drop.
func (r Relay) Deliver(ctx context.Context, payload []byte) error {
	if r.Lookup == nil || r.Next == nil {
		return errors.New("relay requires a key lookup and a dispatcher")
	}
	codec := r.Codec
	if codec == nil {
		codec = JSONCodec{}
	}
	start := time.Now()

	rec, err := codec.Decode(payload)
	if err != nil {
		r.Metrics.Inc(MetricRehydrateFailure)
		return err
	}

	event, err := Rehydrate(ctx, rec, r.Lookup)
	if err != nil {
		if errors.Is(err, ErrAPIKeyNotFound) {
			r.Metrics.Inc(MetricRehydrateNotFound)
		} else {
			r.Metrics.Inc(MetricRehydrateFailure)
		}
		return err
	}
	r.Metrics.Inc(MetricRehydrateSuccess)

	err = r.Next.Dispatch(ctx, event)
	r.Metrics.Observe(MetricDispatchLatency, time.Since(start))
	return err
}
