package apiguard

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// EventAPIKeyAuthenticated is the event type of [APIKeyAuthenticated].
const EventAPIKeyAuthenticated = "api_key.authenticated"

// Event is implemented by every value that can travel through a [Dispatcher].
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
}

// APIKeyAuthenticated records that an API key authenticated a request.
//
// Fields are fixed at construction. The request is opaque and is only present
// on events delivered in-process; events rebuilt from their persisted form
// carry the key alone.
type APIKeyAuthenticated struct {
	id         string
	occurredAt time.Time
	request    any
	apiKey     *APIKey
}

// EventOption overrides generated event metadata.
type EventOption func(*eventOptions)

type eventOptions struct {
	id         string
	occurredAt time.Time
}

// WithEventID sets the event identifier instead of generating a UUID.
func WithEventID(id string) EventOption {
	return func(o *eventOptions) {
		o.id = id
	}
}

// WithOccurredAt sets the event time instead of using the current time.
func WithOccurredAt(t time.Time) EventOption {
	return func(o *eventOptions) {
		o.occurredAt = t
	}
}

// NewAPIKeyAuthenticated builds the event for a successful authentication.
//
// Both request and key are required; no other validation happens here.
func NewAPIKeyAuthenticated(request any, key *APIKey, opts ...EventOption) (*APIKeyAuthenticated, error) {
	if isNil(request) {
		return nil, ErrMissingRequest
	}
	if key == nil {
		return nil, ErrMissingAPIKey
	}
	return newAPIKeyAuthenticated(request, key, opts...), nil
}

// MustNewAPIKeyAuthenticated is like NewAPIKeyAuthenticated but panics when
// either argument is missing.
func MustNewAPIKeyAuthenticated(request any, key *APIKey, opts ...EventOption) *APIKeyAuthenticated {
	e, err := NewAPIKeyAuthenticated(request, key, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func newAPIKeyAuthenticated(request any, key *APIKey, opts ...EventOption) *APIKeyAuthenticated {
	o := eventOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if o.occurredAt.IsZero() {
		o.occurredAt = time.Now()
	}

	return &APIKeyAuthenticated{
		id:         o.id,
		occurredAt: o.occurredAt.UTC(),
		request:    request,
		apiKey:     key,
	}
}

func (e *APIKeyAuthenticated) EventType() string { return EventAPIKeyAuthenticated }

func (e *APIKeyAuthenticated) EventID() string { return e.id }

func (e *APIKeyAuthenticated) OccurredAt() time.Time { return e.occurredAt }

// Request returns the request passed at construction, or nil for a
// rehydrated event.
func (e *APIKeyAuthenticated) Request() any { return e.request }

// HasRequest reports whether the event still holds its inbound request.
func (e *APIKeyAuthenticated) HasRequest() bool { return e.request != nil }

// APIKey returns the key record. The pointer is the one passed at
// construction or returned by the KeyLookup during rehydration.
func (e *APIKeyAuthenticated) APIKey() *APIKey { return e.apiKey }

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
