package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/apiguard"
	"github.com/redis/go-redis/v9"
)

const defaultBlockTimeout = time.Second

// Worker consumes a Redis list and delivers each event to its dispatcher.
type Worker struct {
	redis        redis.UniversalClient
	key          string
	dispatcher   apiguard.Dispatcher
	relay        apiguard.Relay
	blockTimeout time.Duration
	logger       *slog.Logger
	onError      apiguard.ErrorHandler
}

// Option configures a Worker.
type Option func(*Worker)

// WithBlockTimeout sets how long each BLPOP waits before re-checking ctx.
func WithBlockTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.blockTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithErrorHandler(h apiguard.ErrorHandler) Option {
	return func(w *Worker) {
		w.onError = h
	}
}

func WithMetrics(m *apiguard.Metrics) Option {
	return func(w *Worker) {
		w.relay.Metrics = m
	}
}

// WithCodec must match the codec used by the publishing engine.
func WithCodec(c apiguard.Codec) Option {
	return func(w *Worker) {
		if c != nil {
			w.relay.Codec = c
		}
	}
}

// NewWorker returns a Worker popping from key. A nil dispatcher gets a fresh
// apiguard.Bus; register listeners with Listen.
func NewWorker(client redis.UniversalClient, key string, lookup apiguard.KeyLookup, dispatcher apiguard.Dispatcher, opts ...Option) (*Worker, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if lookup == nil {
		return nil, errors.New("key lookup required")
	}
	if key == "" {
		key = DefaultKey
	}
	if dispatcher == nil {
		dispatcher = apiguard.NewBus()
	}

	w := &Worker{
		redis:        client,
		key:          key,
		dispatcher:   dispatcher,
		blockTimeout: defaultBlockTimeout,
		logger:       slog.New(slog.DiscardHandler),
		relay: apiguard.Relay{
			Codec:  apiguard.JSONCodec{},
			Lookup: lookup,
			Next:   dispatcher,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

func (w *Worker) Listen(eventType string, listener apiguard.Listener) {
	w.dispatcher.Listen(eventType, listener)
}

// Run blocks, delivering events until ctx is cancelled. It returns ctx.Err().
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("queue worker started", slog.String("key", w.key))
	defer w.logger.Info("queue worker stopped", slog.String("key", w.key))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := w.redis.BLPop(ctx, w.blockTimeout, w.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			w.logger.Warn("queue pop failed", slog.String("key", w.key), slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.blockTimeout):
			}
			continue
		}
		if len(res) < 2 {
			continue
		}

		_ = w.ProcessOne(ctx, []byte(res[1]))
	}
}

// ProcessOne describes the processone operation and its observable behavior.
//
// ProcessOne delivers a single payload. Failures are logged, passed to the
// error handler, and returned; nothing is requeued.
func (w *Worker) ProcessOne(ctx context.Context, payload []byte) error {
	err := w.relay.Deliver(ctx, payload)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, apiguard.ErrAPIKeyNotFound) {
			level = slog.LevelInfo
		}
		w.logger.Log(ctx, level, "queued event not delivered", slog.String("error", err.Error()))
		if w.onError != nil {
			w.onError(ctx, payload, err)
		}
		return err
	}
	w.logger.Debug("queued event delivered")
	return nil
}
