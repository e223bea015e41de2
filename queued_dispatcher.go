package apiguard

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// QueuedDispatcherConfig configures a [QueuedDispatcher].
type QueuedDispatcherConfig struct {
	BufferSize int
	DropIfFull bool
	Codec      Codec
	Lookup     KeyLookup
	Logger     *slog.Logger
	OnError    ErrorHandler
	Metrics    *Metrics
}

// QueuedDispatcher delivers events on a background goroutine.
//
// Dispatch encodes the event to its persisted form before buffering it, so
// listeners receive a rehydrated event without the original request.
type QueuedDispatcher struct {
	cfg       QueuedDispatcherConfig
	next      Dispatcher
	relay     Relay
	logger    *slog.Logger
	ch        chan []byte
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	// mu is held shared by Dispatch from the closed check through the send,
	// and exclusively by Close, so no send lands after the final drain.
	mu        sync.RWMutex
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewQueuedDispatcher starts a dispatcher that relays to next.
func NewQueuedDispatcher(cfg QueuedDispatcherConfig, next Dispatcher) (*QueuedDispatcher, error) {
	if next == nil {
		return nil, errNilDispatcher
	}
	if cfg.Lookup == nil {
		return nil, errNilLookup
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.Codec == nil {
		cfg.Codec = JSONCodec{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = discardLogger()
	}

	d := &QueuedDispatcher{
		cfg:  cfg,
		next: next,
		relay: Relay{
			Codec:   cfg.Codec,
			Lookup:  cfg.Lookup,
			Next:    next,
			Metrics: cfg.Metrics,
		},
		logger: logger,
		ch:     make(chan []byte, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d, nil
}

func (d *QueuedDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case payload := <-d.ch:
			d.deliver(payload)
		case <-d.done:
			for {
				select {
				case payload := <-d.ch:
					d.deliver(payload)
				default:
					return
				}
			}
		}
	}
}

func (d *QueuedDispatcher) deliver(payload []byte) {
	ctx := context.Background()
	if err := d.relay.Deliver(ctx, payload); err != nil {
		d.logger.Warn("queued event delivery failed", slog.String("error", err.Error()))
		if d.cfg.OnError != nil {
			d.cfg.OnError(ctx, payload, err)
		}
		return
	}
	d.logger.Debug("queued event delivered")
}

// Listen registers on the wrapped dispatcher.
func (d *QueuedDispatcher) Listen(eventType string, listener Listener) {
	if d == nil {
		return
	}
	d.next.Listen(eventType, listener)
}

// Dispatch encodes event and buffers it. It returns ErrQueueFull when the
// buffer is full and DropIfFull is set; otherwise it blocks until the event is
// buffered, ctx is done, or the dispatcher closes. An event accepted with a nil
// error is delivered before Close returns.
func (d *QueuedDispatcher) Dispatch(ctx context.Context, event Event) error {
	if d == nil {
		return ErrDispatcherClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	e, ok := event.(*APIKeyAuthenticated)
	if !ok || e == nil {
		return ErrUnsupportedEventType
	}
	payload, err := d.cfg.Codec.Encode(e)
	if err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed.Load() {
		return ErrDispatcherClosed
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- payload:
			d.cfg.Metrics.Inc(MetricEventEnqueued)
			return nil
		default:
			d.dropped.Add(1)
			d.cfg.Metrics.Inc(MetricEventDropped)
			return ErrQueueFull
		}
	}

	select {
	case d.ch <- payload:
		d.cfg.Metrics.Inc(MetricEventEnqueued)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrDispatcherClosed
	}
}

// Close stops accepting events, drains what is buffered, and waits for the
// worker to finish. It is safe to call more than once.
func (d *QueuedDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)

		// Senders that passed the closed check finish before the lock is
		// granted; anything they buffered is drained below.
		d.mu.Lock()
		defer d.mu.Unlock()

		d.wg.Wait()
		for {
			select {
			case payload := <-d.ch:
				d.deliver(payload)
			default:
				return
			}
		}
	})
}

func (d *QueuedDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
