package apiguard

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequest is returned when an event is built without a request.
	ErrMissingRequest = errors.New("authentication event requires a request")
	// ErrMissingAPIKey is returned when an event is built without an API key.
	ErrMissingAPIKey = errors.New("authentication event requires an api key")
	// ErrAPIKeyNotFound is returned by a KeyLookup when the identifier no longer resolves.
	ErrAPIKeyNotFound = errors.New("api key not found")
	// ErrLookupUnavailable is returned when the key lookup backend cannot be reached.
	ErrLookupUnavailable = errors.New("api key lookup unavailable")
	// ErrEventCorrupt is returned when a persisted event cannot be decoded or verified.
	ErrEventCorrupt = errors.New("persisted event corrupt")
	// ErrUnsupportedEventType is returned when an event of an unknown type is encoded or decoded.
	ErrUnsupportedEventType = errors.New("unsupported event type")
	// ErrDispatcherClosed is returned when dispatching through a closed dispatcher.
	ErrDispatcherClosed = errors.New("dispatcher closed")
	// ErrQueueFull is returned by a drop-if-full dispatcher whose buffer is full.
	ErrQueueFull = errors.New("dispatch queue full")
	// ErrQueueUnavailable is returned when an external queue rejects or cannot accept a payload.
	ErrQueueUnavailable = errors.New("dispatch queue unavailable")
	// ErrEngineNotReady is returned by methods called on a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ListenerError reports which listener failed while delivering an event.
type ListenerError struct {
	EventType string
	EventID   string
	Index     int
	Err       error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %d for %s (event %s): %v", e.Index, e.EventType, e.EventID, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

var (
	errNilDispatcher = errors.New("dispatcher required")
	errNilLookup     = errors.New("key lookup required")
)
