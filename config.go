package apiguard

import "errors"

// DispatchMode selects where listeners run relative to the authenticating goroutine.
type DispatchMode int

const (
	// DispatchSync runs listeners inline, with the original request available.
	DispatchSync DispatchMode = iota
	// DispatchQueued buffers the persisted event in memory and runs listeners
	// on a background worker after rehydrating the key.
	DispatchQueued
	// DispatchExternal hands the persisted event to an [Enqueuer]. Listeners
	// run wherever the queue is consumed.
	DispatchExternal
)

func (m DispatchMode) String() string {
	switch m {
	case DispatchSync:
		return "sync"
	case DispatchQueued:
		return "queued"
	case DispatchExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Config controls how an [Engine] dispatches and measures events.
type Config struct {
	Dispatch DispatchConfig
	Metrics  MetricsConfig
}

/*
====================================
DISPATCH CONFIG
====================================
*/

// DispatchConfig selects the dispatch mode and, for DispatchQueued, its buffering.
type DispatchConfig struct {
	Mode       DispatchMode
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns synchronous dispatch with metrics enabled.
func DefaultConfig() Config {
	return Config{
		Dispatch: DispatchConfig{
			Mode:       DispatchSync,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate returns the first configuration problem it finds.
func (c *Config) Validate() error {
	switch c.Dispatch.Mode {
	case DispatchSync, DispatchExternal:
	case DispatchQueued:
		if c.Dispatch.BufferSize <= 0 {
			return errors.New("Dispatch BufferSize must be > 0 in queued mode")
		}
	default:
		return errors.New("unsupported Dispatch Mode")
	}

	if c.Dispatch.BufferSize < 0 {
		return errors.New("Dispatch BufferSize must be >= 0")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
