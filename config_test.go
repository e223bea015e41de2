package apiguard

import "testing"

func TestDefaultConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
	if cfg.Dispatch.Mode != DispatchSync {
		t.Fatalf("expected sync default mode, got %s", cfg.Dispatch.Mode)
	}
}

func TestConfigValidateQueuedBufferSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dispatch.Mode = DispatchQueued
	cfg.Dispatch.BufferSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero buffer in queued mode")
	}
}

func TestConfigValidateNegativeBufferSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dispatch.BufferSize = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative buffer size")
	}
}

func TestConfigValidateUnknownMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dispatch.Mode = DispatchMode(9)
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if cfg.Dispatch.Mode.String() != "unknown" {
		t.Fatalf("unexpected mode name %q", cfg.Dispatch.Mode.String())
	}
}

func TestConfigValidateLatencyRequiresMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = false
	cfg.Metrics.EnableLatencyHistograms = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for latency histograms without metrics")
	}
}
