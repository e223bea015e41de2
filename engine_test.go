package apiguard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestBuilderValidation(t *testing.T) {
	queued := DefaultConfig()
	queued.Dispatch.Mode = DispatchQueued

	external := DefaultConfig()
	external.Dispatch.Mode = DispatchExternal

	badMode := DefaultConfig()
	badMode.Dispatch.Mode = DispatchMode(42)

	tests := []struct {
		name string
		b    *Builder
	}{
		{name: "queued without lookup", b: New().WithConfig(queued)},
		{name: "external without enqueuer", b: New().WithConfig(external)},
		{name: "unknown mode", b: New().WithConfig(badMode)},
		{name: "latency without metrics", b: New().WithMetricsEnabled(false).WithLatencyHistograms(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.b.Build()
			require.Error(t, err)
			assert.Nil(t, e)
		})
	}
}

func TestBuilderCanOnlyBuildOnce(t *testing.T) {
	b := New()
	e, err := b.Build()
	require.NoError(t, err)
	defer e.Close()

	_, err = b.Build()
	require.Error(t, err)
}

func TestEngineSyncDispatch(t *testing.T) {
	e, err := New().WithLatencyHistograms(true).Build()
	require.NoError(t, err)
	defer e.Close()

	req := &fakeRequest{Path: "/v1/resource"}
	key := &APIKey{ID: "k1", Owner: "alice"}

	var seen *APIKeyAuthenticated
	e.OnAuthenticated(func(_ context.Context, ev *APIKeyAuthenticated) error {
		seen = ev
		return nil
	})

	event, err := e.Authenticated(context.Background(), req, key)
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Same(t, event, seen)
	assert.Same(t, req, seen.Request())
	assert.Equal(t, DispatchSync, e.Mode())

	snap := e.MetricsSnapshot()
	assert.Equal(t, uint64(1), snap.Counters[MetricEventDispatched])
	assert.Equal(t, uint64(1), snap.Counters[MetricListenerInvoked])
	require.Len(t, snap.Histograms[MetricDispatchLatency], histBucketCount)
}

func TestEngineSyncListenerErrorKeepsEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	e, err := New().WithLogger(logger).Build()
	require.NoError(t, err)
	defer e.Close()

	boom := errors.New("boom")
	e.Listen(EventAPIKeyAuthenticated, ListenerFunc(func(context.Context, Event) error {
		return boom
	}))

	event, err := e.Authenticated(context.Background(), &fakeRequest{}, &APIKey{ID: "k1"})
	require.ErrorIs(t, err, boom)
	require.NotNil(t, event)
	assert.Contains(t, buf.String(), "event listener failed")
}

func TestEngineRejectsMissingArgumentsBeforeDispatch(t *testing.T) {
	e, err := New().Build()
	require.NoError(t, err)
	defer e.Close()

	called := false
	e.Listen(AnyEvent, ListenerFunc(func(context.Context, Event) error {
		called = true
		return nil
	}))

	_, err = e.Authenticated(context.Background(), nil, &APIKey{ID: "k1"})
	require.ErrorIs(t, err, ErrMissingRequest)
	_, err = e.Authenticated(context.Background(), &fakeRequest{}, nil)
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.False(t, called)
}

func TestEngineQueuedDispatch(t *testing.T) {
	stored := &APIKey{ID: "k1", Owner: "alice"}
	cfg := DefaultConfig()
	cfg.Dispatch.Mode = DispatchQueued
	cfg.Dispatch.BufferSize = 8

	e, err := New().
		WithConfig(cfg).
		WithKeyLookup(NewMemoryKeyLookup(stored)).
		Build()
	require.NoError(t, err)

	c := &collector{}
	e.Listen(EventAPIKeyAuthenticated, c.listener())

	_, err = e.Authenticated(context.Background(), &fakeRequest{}, &APIKey{ID: "k1"})
	require.NoError(t, err)
	e.Close()

	got := c.snapshot()
	require.Len(t, got, 1)
	assert.False(t, got[0].HasRequest())
	assert.Same(t, stored, got[0].APIKey())
	assert.Equal(t, DispatchQueued, e.Mode())
	assert.Equal(t, uint64(0), e.QueueDropped())
}

func TestEngineExternalDispatch(t *testing.T) {
	q := &fakeEnqueuer{}
	cfg := DefaultConfig()
	cfg.Dispatch.Mode = DispatchExternal

	e, err := New().WithConfig(cfg).WithEnqueuer(q).Build()
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Authenticated(context.Background(), &fakeRequest{Path: "/secret"}, &APIKey{ID: "k1", Owner: "alice"})
	require.NoError(t, err)

	q.mu.Lock()
	require.Len(t, q.payloads, 1)
	payload := q.payloads[0]
	q.mu.Unlock()

	rec, err := JSONCodec{}.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "k1", rec.APIKeyID)
	assert.NotContains(t, string(payload), "/secret")
	assert.Equal(t, uint64(1), e.MetricsSnapshot().Counters[MetricEventEnqueued])
}

func TestEngineExternalEnqueueFailure(t *testing.T) {
	q := &fakeEnqueuer{err: errors.New("redis down")}
	cfg := DefaultConfig()
	cfg.Dispatch.Mode = DispatchExternal

	e, err := New().WithConfig(cfg).WithEnqueuer(q).Build()
	require.NoError(t, err)
	defer e.Close()

	event, err := e.Authenticated(context.Background(), &fakeRequest{}, &APIKey{ID: "k1"})
	require.ErrorIs(t, err, ErrQueueUnavailable)
	require.NotNil(t, event)
	assert.Equal(t, uint64(1), e.MetricsSnapshot().Counters[MetricEventDropped])
}

func TestEngineClosed(t *testing.T) {
	e, err := New().Build()
	require.NoError(t, err)
	e.Close()
	e.Close()

	_, err = e.Authenticated(context.Background(), &fakeRequest{}, &APIKey{ID: "k1"})
	require.ErrorIs(t, err, ErrEngineNotReady)

	var nilEngine *Engine
	_, err = nilEngine.Authenticated(context.Background(), &fakeRequest{}, &APIKey{ID: "k1"})
	require.ErrorIs(t, err, ErrEngineNotReady)
	assert.Empty(t, nilEngine.MetricsSnapshot().Counters)
}

func TestEngineMetricsDisabled(t *testing.T) {
	e, err := New().WithMetricsEnabled(false).Build()
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Authenticated(context.Background(), &fakeRequest{}, &APIKey{ID: "k1"})
	require.NoError(t, err)
	assert.Empty(t, e.MetricsSnapshot().Counters)
}
