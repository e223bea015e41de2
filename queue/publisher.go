package queue

import (
	"context"
	"fmt"

	"github.com/MrEthical07/apiguard"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the list key used when none is given.
const DefaultKey = "ag:events"

// Publisher appends encoded events to a Redis list.
type Publisher struct {
	redis redis.UniversalClient
	key   string
}

func NewPublisher(client redis.UniversalClient, key string) *Publisher {
	if key == "" {
		key = DefaultKey
	}
	return &Publisher{
		redis: client,
		key:   key,
	}
}

// Enqueue implements apiguard.Enqueuer.
func (p *Publisher) Enqueue(ctx context.Context, payload []byte) error {
	if err := p.redis.RPush(ctx, p.key, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", apiguard.ErrQueueUnavailable, err)
	}
	return nil
}

// Len returns the number of payloads waiting in the list.
func (p *Publisher) Len(ctx context.Context) (int64, error) {
	n, err := p.redis.LLen(ctx, p.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apiguard.ErrQueueUnavailable, err)
	}
	return n, nil
}
