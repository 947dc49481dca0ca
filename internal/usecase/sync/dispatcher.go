package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/logger"
	"github.com/kailas-cloud/vecsync/internal/metrics"
)

// ErrQueueFull is returned by Enqueue when the delivery buffer is at
// capacity. The webhook transport maps it to a retryable status so the
// connector redelivers later.
var ErrQueueFull = errors.New("delivery queue full")

// DefaultQueueSize is the default delivery buffer capacity.
const DefaultQueueSize = 256

// DefaultWorkers is the default number of concurrent deliveries.
const DefaultWorkers = 4

type delivery struct {
	id    string
	event Event
}

// Dispatcher decouples webhook acknowledgment from processing: the
// transport enqueues and returns immediately, a fixed worker pool
// drains the buffer through the orchestrator. Stop waits for in-flight
// deliveries so shutdown never drops an acknowledged event.
type Dispatcher struct {
	processor Processor
	logger    *zap.Logger

	queue   chan delivery
	workers int
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// Processor handles one delivery. *Service implements it.
type Processor interface {
	Process(ctx context.Context, ev Event) error
}

// NewDispatcher creates a stopped dispatcher.
func NewDispatcher(processor Processor, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		processor: processor,
		logger:    log,
		queue:     make(chan delivery, DefaultQueueSize),
		workers:   DefaultWorkers,
	}
}

// WithQueueSize overrides the delivery buffer capacity. Must be called
// before Start.
func (d *Dispatcher) WithQueueSize(size int) *Dispatcher {
	if size > 0 {
		d.queue = make(chan delivery, size)
	}
	return d
}

// WithWorkers overrides the worker count. Must be called before Start.
func (d *Dispatcher) WithWorkers(n int) *Dispatcher {
	if n > 0 {
		d.workers = n
	}
	return d
}

// Start launches the worker pool. The context bounds each delivery's
// processing, not the dispatcher's lifetime; use Stop to shut down.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Stop closes the queue and blocks until every buffered and in-flight
// delivery has been processed.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// Enqueue accepts one delivery without blocking. It returns the
// assigned delivery id, or ErrQueueFull when the buffer is saturated
// or the dispatcher has stopped. The send stays under the mutex so it
// is ordered against Stop's close of the queue; the select never
// blocks, so holding the lock here is safe.
func (d *Dispatcher) Enqueue(ev Event) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return "", ErrQueueFull
	}

	id := uuid.NewString()
	select {
	case d.queue <- delivery{id: id, event: ev}:
		metrics.WebhookQueueDepth.Set(float64(len(d.queue)))
		return id, nil
	default:
		return "", ErrQueueFull
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for del := range d.queue {
		metrics.WebhookQueueDepth.Set(float64(len(d.queue)))
		d.handle(ctx, del)
	}
}

// handle runs one delivery, isolating panics so a poisonous payload
// cannot take the worker down.
func (d *Dispatcher) handle(ctx context.Context, del delivery) {
	log := d.logger.With(
		zap.String("delivery_id", del.id),
		zap.String("event_type", del.event.Type),
		zap.String("connection_id", del.event.ConnectionID),
	)
	ctx = logger.ContextWithLogger(ctx, log)
	start := time.Now()

	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			log.Error("delivery panicked", zap.Any("panic", r))
		}
		metrics.WebhookDeliveriesTotal.WithLabelValues(del.event.Type, outcome).Inc()
		metrics.SyncDuration.WithLabelValues(del.event.Type).Observe(time.Since(start).Seconds())
	}()

	if err := d.processor.Process(ctx, del.event); err != nil {
		outcome = "error"
		log.Error("delivery failed", zap.Error(err))
		return
	}
	log.Info("delivery processed", zap.Duration("took", time.Since(start)))
}
