package core

import (
	"context"
	"sync"
	"time"

	"github.com/olyamironova/order-matcher/internal/domain"
	"github.com/olyamironova/order-matcher/internal/metrics"
	"github.com/olyamironova/order-matcher/internal/port"
	"go.uber.org/zap"
)

// Batch is everything one engine call hands to downstream sinks.
type Batch struct {
	Events   []domain.OrderEvent
	Quote    domain.Quote
	Finished []domain.Order
}

// Dispatcher delivers batches to the sinks from a single goroutine so that
// slow sinks never hold up matching. Enqueue drops a batch when the queue is full.
type Dispatcher struct {
	logger    *zap.Logger
	publisher port.EventPublisher
	quotes    []port.QuoteStore
	archive   port.OrderArchive
	timeout   time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Batch
	done   chan struct{}
}

type DispatcherOption func(*Dispatcher)

func WithPublisher(p port.EventPublisher) DispatcherOption {
	return func(d *Dispatcher) { d.publisher = p }
}

// WithQuoteStore adds a quote sink; it may be given more than once.
func WithQuoteStore(q port.QuoteStore) DispatcherOption {
	return func(d *Dispatcher) { d.quotes = append(d.quotes, q) }
}

func WithArchive(a port.OrderArchive) DispatcherOption {
	return func(d *Dispatcher) { d.archive = a }
}

// WithSinkTimeout bounds each sink call.
func WithSinkTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.timeout = t }
}

func NewDispatcher(logger *zap.Logger, buffer int, opts ...DispatcherOption) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	d := &Dispatcher{
		logger:  logger,
		timeout: 5 * time.Second,
		queue:   make(chan Batch, buffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue reports whether b was accepted.
func (d *Dispatcher) Enqueue(b Batch) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- b:
		return true
	default:
		metrics.DispatchDropped.Inc()
		d.logger.Warn("dispatch queue full, dropping batch",
			zap.Int("events", len(b.Events)),
			zap.String("instrument", string(b.Quote.Instrument)))
		return false
	}
}

// Run delivers batches until Close is called and the queue is drained.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for b := range d.queue {
		d.deliver(ctx, b)
	}
}

// Close stops accepting batches and waits for Run to drain the queue.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) deliver(ctx context.Context, b Batch) {
	if d.publisher != nil && len(b.Events) > 0 {
		d.call(ctx, "publisher", func(ctx context.Context) error {
			return d.publisher.Publish(ctx, b.Events)
		})
	}
	if b.Quote.Instrument != "" {
		for _, q := range d.quotes {
			d.call(ctx, "quotes", func(ctx context.Context) error {
				return q.SetQuote(ctx, b.Quote)
			})
		}
	}
	if d.archive != nil && len(b.Finished) > 0 {
		d.call(ctx, "archive", func(ctx context.Context) error {
			return d.archive.ArchiveOrders(ctx, b.Finished)
		})
	}
}

func (d *Dispatcher) call(ctx context.Context, sink string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		metrics.SinkErrors.WithLabelValues(sink).Inc()
		d.logger.Warn("sink delivery failed", zap.String("sink", sink), zap.Error(err))
	}
}
