package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Config controls dispatcher buffering.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit non-blocking. Events that find the queue full are
	// counted, passed to OnDrop and discarded.
	DropIfFull bool
	// OnDrop is called synchronously from Emit for every dropped event.
	OnDrop func(Event)
}

// Dispatcher hands events to a Sink from a single worker goroutine. Every method
// is a no-op on a nil Dispatcher.
type Dispatcher struct {
	sink       Sink
	logger     *zap.Logger
	dropIfFull bool
	onDrop     func(Event)

	queue   chan Event
	stop    chan struct{}
	worker  sync.WaitGroup
	closing atomic.Bool
	once    sync.Once
	dropped atomic.Uint64
}

// NewDispatcher starts the worker and returns nil when cfg is disabled. A nil sink
// discards events and a nil logger is replaced with a no-op one.
func NewDispatcher(cfg Config, sink Sink, logger *zap.Logger) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		sink:       sink,
		logger:     logger,
		dropIfFull: cfg.DropIfFull,
		onDrop:     cfg.OnDrop,
		queue:      make(chan Event, max(cfg.BufferSize, 1)),
		stop:       make(chan struct{}),
	}
	d.worker.Add(1)
	go d.work()
	return d
}

func (d *Dispatcher) work() {
	defer d.worker.Done()
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

// drain delivers whatever is still queued after Close.
func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		default:
			return
		}
	}
}

// deliver keeps the worker alive when a sink panics.
func (d *Dispatcher) deliver(event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("audit sink panicked",
				zap.String("kind", string(event.Kind)),
				zap.Any("panic", r),
			)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

// Emit queues event for the sink. With DropIfFull a full queue drops the event;
// otherwise Emit waits for room until ctx is done or the dispatcher closes. Events
// emitted after Close are discarded without being counted.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closing.Load() {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.drop(event)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.stop:
	}
}

func (d *Dispatcher) drop(event Event) {
	if d.dropped.Add(1) == 1 {
		d.logger.Warn("audit queue full, dropping events",
			zap.Int("buffer_size", cap(d.queue)),
			zap.String("kind", string(event.Kind)),
		)
	}
	if d.onDrop != nil {
		d.onDrop(event)
	}
}

// Close stops accepting events, delivers the queued ones and waits for the worker
// to exit. Later calls return immediately.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closing.Store(true)
		close(d.stop)
		d.worker.Wait()
	})
}

// Dropped reports how many events were discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
