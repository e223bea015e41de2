package apiguard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// PersistedEvent is the form an authentication event takes outside the
// process that created it. Only the key identifier is kept; the request and
// the key's other fields are dropped.
type PersistedEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	APIKeyID   string    `json:"api_key_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Persist returns the persisted form of e.
func Persist(e *APIKeyAuthenticated) (PersistedEvent, error) {
	if e == nil {
		return PersistedEvent{}, fmt.Errorf("%w: nil event", ErrEventCorrupt)
	}
	if e.apiKey == nil || e.apiKey.ID == "" {
		return PersistedEvent{}, fmt.Errorf("%w: api key has no identifier", ErrEventCorrupt)
	}
	return PersistedEvent{
		EventID:    e.id,
		EventType:  EventAPIKeyAuthenticated,
		APIKeyID:   e.apiKey.ID,
		OccurredAt: e.occurredAt.UTC(),
	}, nil
}

// Codec converts authentication events to and from bytes.
type Codec interface {
	Encode(e *APIKeyAuthenticated) ([]byte, error)
	Decode(data []byte) (PersistedEvent, error)
}

// JSONCodec encodes the persisted form as a single JSON object. Output is
// deterministic for a given event.
type JSONCodec struct{}

func (JSONCodec) Encode(e *APIKeyAuthenticated) ([]byte, error) {
	rec, err := Persist(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

func (JSONCodec) Decode(data []byte) (PersistedEvent, error) {
	var rec PersistedEvent
	if err := json.Unmarshal(data, &rec); err != nil {
		return PersistedEvent{}, fmt.Errorf("%w: %v", ErrEventCorrupt, err)
	}
	if err := rec.Validate(); err != nil {
		return PersistedEvent{}, err
	}
	return rec, nil
}

// Validate checks the fields every decoder requires.
func (rec PersistedEvent) Validate() error {
	if rec.EventType != EventAPIKeyAuthenticated {
		return fmt.Errorf("%w: %q", ErrUnsupportedEventType, rec.EventType)
	}
	if rec.APIKeyID == "" {
		return fmt.Errorf("%w: missing api_key_id", ErrEventCorrupt)
	}
	if rec.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing occurred_at", ErrEventCorrupt)
	}
	return nil
}

// Rehydrate rebuilds an event from its persisted form by fetching the key
// through lookup. The returned event has no request. No event is returned on
// error.
func Rehydrate(ctx context.Context, rec PersistedEvent, lookup KeyLookup) (*APIKeyAuthenticated, error) {
	if lookup == nil {
		return nil, errNilLookup
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key, err := lookup.FindAPIKey(ctx, rec.APIKeyID)
	if err != nil {
		return nil, fmt.Errorf("rehydrate event %s: api key %q: %w", rec.EventID, rec.APIKeyID, err)
	}
	if key == nil {
		return nil, fmt.Errorf("rehydrate event %s: api key %q: %w", rec.EventID, rec.APIKeyID, ErrAPIKeyNotFound)
	}
	if key.ID != rec.APIKeyID {
		return nil, fmt.Errorf("%w: lookup returned key %q for %q", ErrEventCorrupt, key.ID, rec.APIKeyID)
	}

	return &APIKeyAuthenticated{
		id:         rec.EventID,
		occurredAt: rec.OccurredAt.UTC(),
		apiKey:     key,
	}, nil
}

// Unmarshal decodes data with codec and rehydrates the result.
func Unmarshal(ctx context.Context, codec Codec, data []byte, lookup KeyLookup) (*APIKeyAuthenticated, error) {
	if codec == nil {
		codec = JSONCodec{}
	}
	rec, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return Rehydrate(ctx, rec, lookup)
}
