package apiguard

import (
	"context"
	"sync"
)

// KeyLookup resolves a durable key identifier back to its full record.
//
// Implementations must return an error matching [ErrAPIKeyNotFound] when the
// identifier does not resolve.
type KeyLookup interface {
	FindAPIKey(ctx context.Context, id string) (*APIKey, error)
}

// KeyLookupFunc adapts a function to [KeyLookup].
type KeyLookupFunc func(ctx context.Context, id string) (*APIKey, error)

func (f KeyLookupFunc) FindAPIKey(ctx context.Context, id string) (*APIKey, error) {
	return f(ctx, id)
}

// MemoryKeyLookup is an in-process KeyLookup, mostly useful for tests and
// single-node deployments that already hold their keys in memory.
type MemoryKeyLookup struct {
	mu   sync.RWMutex
	keys map[string]*APIKey
}

func NewMemoryKeyLookup(keys ...*APIKey) *MemoryKeyLookup {
	m := &MemoryKeyLookup{
		keys: make(map[string]*APIKey, len(keys)),
	}
	for _, k := range keys {
		m.Put(k)
	}
	return m
}

// Put stores or replaces a key. Nil keys and keys without an ID are ignored.
func (m *MemoryKeyLookup) Put(key *APIKey) {
	if key == nil || key.ID == "" {
		return
	}
	m.mu.Lock()
	m.keys[key.ID] = key
	m.mu.Unlock()
}

func (m *MemoryKeyLookup) Delete(id string) {
	m.mu.Lock()
	delete(m.keys, id)
	m.mu.Unlock()
}

func (m *MemoryKeyLookup) FindAPIKey(_ context.Context, id string) (*APIKey, error) {
	m.mu.RLock()
	key, ok := m.keys[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrAPIKeyNotFound
	}
	return key, nil
}
