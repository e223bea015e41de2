package apiguard

import (
	"errors"
	"log/slog"
)

// Builder assembles an [Engine]. A Builder can be used once.
type Builder struct {
	config   Config
	lookup   KeyLookup
	codec    Codec
	enqueuer Enqueuer
	logger   *slog.Logger
	onError  ErrorHandler

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithKeyLookup sets the lookup used to rehydrate queued events. Required in
// DispatchQueued mode.
func (b *Builder) WithKeyLookup(lookup KeyLookup) *Builder {
	b.lookup = lookup
	return b
}

// WithCodec replaces the default [JSONCodec].
func (b *Builder) WithCodec(codec Codec) *Builder {
	b.codec = codec
	return b
}

// WithEnqueuer sets the external queue. Required in DispatchExternal mode.
func (b *Builder) WithEnqueuer(q Enqueuer) *Builder {
	b.enqueuer = q
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithErrorHandler receives delivery failures from the queued worker.
func (b *Builder) WithErrorHandler(h ErrorHandler) *Builder {
	b.onError = h
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration and the collaborators each dispatch mode
// needs, then starts the queued worker if one is configured.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Dispatch.Mode {
	case DispatchQueued:
		if b.lookup == nil {
			return nil, errors.New("Queued dispatch requires a key lookup")
		}
	case DispatchExternal:
		if b.enqueuer == nil {
			return nil, errors.New("External dispatch requires an enqueuer")
		}
	}

	logger := b.logger
	if logger == nil {
		logger = discardLogger()
	}
	codec := b.codec
	if codec == nil {
		codec = JSONCodec{}
	}

	metrics := NewMetrics(cfg.Metrics)
	engine := &Engine{
		config:   cfg,
		bus:      newBusWithMetrics(metrics),
		enqueuer: b.enqueuer,
		codec:    codec,
		metrics:  metrics,
		logger:   logger,
	}

	if cfg.Dispatch.Mode == DispatchQueued {
		queued, err := NewQueuedDispatcher(QueuedDispatcherConfig{
			BufferSize: cfg.Dispatch.BufferSize,
			DropIfFull: cfg.Dispatch.DropIfFull,
			Codec:      codec,
			Lookup:     b.lookup,
			Logger:     logger,
			OnError:    b.onError,
			Metrics:    metrics,
		}, engine.bus)
		if err != nil {
			return nil, err
		}
		engine.queued = queued
	}

	b.built = true

	return engine, nil
}
