package core

import (
	"context"
	"errors"
	"time"

	"github.com/olyamironova/order-matcher/internal/domain"
	"github.com/olyamironova/order-matcher/internal/metrics"
	"go.uber.org/zap"
)

// Engine is the entry point used by the transports: it runs requests through
// the Router and turns the resulting changes into events for the Dispatcher.
type Engine struct {
	router     *Router
	dispatcher *Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewEngine wires the router to an optional dispatcher.
func NewEngine(router *Router, dispatcher *Dispatcher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		router:     router,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

func (e *Engine) Instruments() []domain.Instrument {
	return e.router.Instruments()
}

// SubmitOrder submits and matches one order, returning its post-match state.
func (e *Engine) SubmitOrder(ctx context.Context, req domain.SubmitRequest) (domain.Order, error) {
	start := time.Now()
	o, changes, err := e.router.SubmitOrder(req, e.emitter(domain.EventAccepted, domain.EventMatched))
	if err != nil {
		if errors.Is(err, domain.ErrOrderIDsExhausted) {
			e.logger.Error("order ids exhausted, refusing submissions", zap.Error(err))
		}
		return domain.Order{}, err
	}
	metrics.SubmitLatency.Observe(time.Since(start).Seconds())
	metrics.OrdersSubmitted.WithLabelValues(string(o.Instrument), string(o.Side), string(o.Type)).Inc()
	if o.Filled > 0 {
		metrics.MatchedVolume.WithLabelValues(string(o.Instrument)).Add(float64(o.Filled))
	}

	e.logger.Debug("order submitted",
		zap.Uint64("order_id", o.ID),
		zap.Uint64("customer_id", o.CustomerID),
		zap.String("instrument", string(o.Instrument)),
		zap.String("side", string(o.Side)),
		zap.String("type", string(o.Type)),
		zap.Int64("limit_price", o.LimitPrice),
		zap.Uint64("matched_volume", o.Filled),
		zap.String("status", string(o.Status())),
		zap.Int("makers", len(changes.Orders)-1))
	return o, nil
}

func (e *Engine) RetrieveOrder(ctx context.Context, id uint64) (domain.Order, error) {
	return e.router.RetrieveOrder(id)
}

// CancelOrder returns the order's terminal status. Cancelling a terminal order
// is not an error and emits nothing.
func (e *Engine) CancelOrder(ctx context.Context, id uint64) (domain.OrderStatus, error) {
	st, changes, err := e.router.CancelOrder(id, e.emitter(domain.EventCancelled, domain.EventCancelled))
	if err != nil {
		return "", err
	}
	if len(changes.Orders) == 0 {
		return st, nil
	}
	metrics.OrdersCancelled.WithLabelValues(string(changes.Quote.Instrument)).Inc()
	e.logger.Debug("order cancelled", zap.Uint64("order_id", id), zap.String("status", string(st)))
	return st, nil
}

func (e *Engine) GetQuote(ctx context.Context, in domain.Instrument) (domain.Quote, error) {
	return e.router.GetQuote(in)
}

func (e *Engine) Depth(ctx context.Context, in domain.Instrument, n int) (domain.BookSnapshot, error) {
	return e.router.Depth(in, n)
}

func (e *Engine) History(ctx context.Context, in domain.Instrument, n int) ([]domain.Order, error) {
	return e.router.History(in, n)
}

// emitter returns the hook that turns a book's changes into one batch, tagging
// the first changed order with first and the rest with rest. It runs under the
// book lock, which keeps batches of one instrument in application order;
// Enqueue never blocks.
func (e *Engine) emitter(first, rest domain.EventKind) Emit {
	if e.dispatcher == nil {
		return nil
	}
	return func(changes Changes) {
		e.dispatch(first, rest, changes)
	}
}

func (e *Engine) dispatch(first, rest domain.EventKind, changes Changes) {
	if len(changes.Orders) == 0 {
		return
	}
	ts := e.now()
	b := Batch{
		Events:   make([]domain.OrderEvent, 0, len(changes.Orders)),
		Quote:    changes.Quote,
		Finished: changes.Finished(),
	}
	for i, o := range changes.Orders {
		kind := rest
		if i == 0 {
			kind = first
		}
		b.Events = append(b.Events, domain.NewOrderEvent(kind, o, ts))
	}
	e.dispatcher.Enqueue(b)
}
