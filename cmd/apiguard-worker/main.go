// Command apiguard-worker consumes authentication events from a Redis list,
// rehydrates each api key, and logs the result as JSON lines.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/apiguard"
	"github.com/MrEthical07/apiguard/keystore"
	"github.com/MrEthical07/apiguard/queue"
	"github.com/MrEthical07/apiguard/signing"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		redisAddr    = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix       = flag.String("prefix", "ag", "api key record prefix")
		queueKey     = flag.String("queue-key", queue.DefaultKey, "redis list holding queued events")
		blockTimeout = flag.Duration("block-timeout", time.Second, "BLPOP timeout per poll")
		logLevel     = flag.String("log-level", "info", "debug, info, warn or error")
		hmacSecret   = flag.String("hmac-secret", "", "verify hs256-signed payloads with this secret; env APIGUARD_HMAC_SECRET")
	)
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level: %v\n", err)
		os.Exit(2)
	}
	if *blockTimeout <= 0 {
		fmt.Fprintln(os.Stderr, "block-timeout must be > 0")
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	secret := *hmacSecret
	if secret == "" {
		secret = os.Getenv("APIGUARD_HMAC_SECRET")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		logger.Info("using miniredis", slog.String("addr", mr.Addr()))
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		logger.Info("using redis", slog.String("addr", addr))
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []queue.Option{
		queue.WithBlockTimeout(*blockTimeout),
		queue.WithLogger(logger),
	}
	if secret != "" {
		codec, err := signing.NewCodec(signing.Config{Method: signing.MethodHS256, PrivateKey: []byte(secret)})
		if err != nil {
			fmt.Fprintf(os.Stderr, "signing codec: %v\n", err)
			os.Exit(2)
		}
		opts = append(opts, queue.WithCodec(codec))
	}

	worker, err := queue.NewWorker(client, *queueKey, keystore.NewStore(client, *prefix), nil, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
	worker.Listen(apiguard.AnyEvent, apiguard.ListenerFunc(func(ctx context.Context, event apiguard.Event) error {
		attrs := []any{
			slog.String("event_type", event.EventType()),
			slog.String("event_id", event.EventID()),
			slog.Time("occurred_at", event.OccurredAt()),
		}
		if e, ok := event.(*apiguard.APIKeyAuthenticated); ok {
			attrs = append(attrs,
				slog.String("api_key_id", e.APIKey().ID),
				slog.String("owner", e.APIKey().Owner),
			)
		}
		logger.Info("event", attrs...)
		return nil
	}))

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
