package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/apiguard"
	"github.com/redis/go-redis/v9"
)

// ErrRecordCorrupt is returned when a stored key record cannot be decoded.
var ErrRecordCorrupt = errors.New("api key record corrupt")

// Store implements [apiguard.KeyLookup] on top of Redis.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a Store reading keys under prefix. An empty prefix
// defaults to "ag".
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ag"
	}
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

// Key returns the Redis key holding the record for id.
func (s *Store) Key(id string) string {
	return s.prefix + ":apikey:" + id
}

// FindAPIKey describes the findapikey operation and its observable behavior.
//
// FindAPIKey returns apiguard.ErrAPIKeyNotFound for missing records and wraps
// apiguard.ErrLookupUnavailable for transport failures.
func (s *Store) FindAPIKey(ctx context.Context, id string) (*apiguard.APIKey, error) {
	if id == "" {
		return nil, apiguard.ErrAPIKeyNotFound
	}

	data, err := s.redis.Get(ctx, s.Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apiguard.ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("%w: %v", apiguard.ErrLookupUnavailable, err)
	}

	var key apiguard.APIKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrRecordCorrupt, apiguard.ErrEventCorrupt, err)
	}
	if key.ID == "" {
		key.ID = id
	}

	return &key, nil
}

// Put writes key. A ttl of zero keeps the record until it is deleted.
func (s *Store) Put(ctx context.Context, key *apiguard.APIKey, ttl time.Duration) error {
	if key == nil || key.ID == "" {
		return errors.New("api key with identifier required")
	}
	data, err := json.Marshal(key)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.Key(key.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", apiguard.ErrLookupUnavailable, err)
	}
	return nil
}

// Delete removes the record for id. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.Key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", apiguard.ErrLookupUnavailable, err)
	}
	return nil
}
