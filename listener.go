package apiguard

import "context"

// AnyEvent is the event type a listener registers under to receive every event.
const AnyEvent = "*"

// Listener handles a dispatched event.
type Listener interface {
	Handle(ctx context.Context, event Event) error
}

// ListenerFunc adapts a function to [Listener].
type ListenerFunc func(ctx context.Context, event Event) error

func (f ListenerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// OnAPIKeyAuthenticated wraps fn so it only runs for [APIKeyAuthenticated]
// events. Other event types are ignored.
func OnAPIKeyAuthenticated(fn func(ctx context.Context, event *APIKeyAuthenticated) error) Listener {
	return ListenerFunc(func(ctx context.Context, event Event) error {
		e, ok := event.(*APIKeyAuthenticated)
		if !ok || e == nil {
			return nil
		}
		return fn(ctx, e)
	})
}

// Dispatcher delivers events to the listeners registered for their type.
type Dispatcher interface {
	Listen(eventType string, listener Listener)
	Dispatch(ctx context.Context, event Event) error
}
