package apiguard

import (
	"context"
	"sync"
)

// Bus is an in-process synchronous [Dispatcher].
//
// Listeners run on the dispatching goroutine in the order they were registered,
// type-specific listeners first and [AnyEvent] listeners after. Delivery stops
// at the first listener error.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	metrics   *Metrics
}

func NewBus() *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
	}
}

func newBusWithMetrics(m *Metrics) *Bus {
	b := NewBus()
	b.metrics = m
	return b
}

// Listen registers listener for eventType. Nil listeners are ignored.
func (b *Bus) Listen(eventType string, listener Listener) {
	if b == nil || listener == nil {
		return
	}
	b.mu.Lock()
	b.listeners[eventType] = append(b.listeners[eventType], listener)
	b.mu.Unlock()
}

// Listeners returns the number of listeners that would receive an event of eventType.
func (b *Bus) Listeners(eventType string) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.listeners[eventType])
	if eventType != AnyEvent {
		n += len(b.listeners[AnyEvent])
	}
	return n
}

func (b *Bus) Dispatch(ctx context.Context, event Event) error {
	if b == nil || event == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	eventType := event.EventType()

	b.mu.RLock()
	matched := make([]Listener, 0, len(b.listeners[eventType])+len(b.listeners[AnyEvent]))
	matched = append(matched, b.listeners[eventType]...)
	if eventType != AnyEvent {
		matched = append(matched, b.listeners[AnyEvent]...)
	}
	b.mu.RUnlock()

	b.metrics.Inc(MetricEventDispatched)

	for i, l := range matched {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.metrics.Inc(MetricListenerInvoked)
		if err := l.Handle(ctx, event); err != nil {
			b.metrics.Inc(MetricListenerFailure)
			return &ListenerError{
				EventType: eventType,
				EventID:   event.EventID(),
				Index:     i,
				Err:       err,
			}
		}
	}
	return nil
}
