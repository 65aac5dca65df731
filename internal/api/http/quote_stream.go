package http

import (
	"context"
	"sync"

	"github.com/olyamironova/order-matcher/internal/domain"
	"github.com/olyamironova/order-matcher/internal/port"
)

type quoteSub struct {
	instrument domain.Instrument
	ch         chan domain.Quote
}

// QuoteHub fans quote updates out to websocket subscribers and remembers the
// last quote per instrument. Slow subscribers miss updates instead of
// blocking delivery.
type QuoteHub struct {
	mu   sync.RWMutex
	subs map[*quoteSub]struct{}
	last map[domain.Instrument]domain.Quote
}

var _ port.QuoteStore = (*QuoteHub)(nil)

func NewQuoteHub() *QuoteHub {
	return &QuoteHub{
		subs: make(map[*quoteSub]struct{}),
		last: make(map[domain.Instrument]domain.Quote),
	}
}

func (h *QuoteHub) Subscribe(instrument domain.Instrument, buffer int) *quoteSub {
	sub := &quoteSub{instrument: instrument, ch: make(chan domain.Quote, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *QuoteHub) Unsubscribe(sub *quoteSub) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
	h.mu.Unlock()
}

func (h *QuoteHub) SetQuote(ctx context.Context, q domain.Quote) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.last[q.Instrument]; ok && prev.Equal(q) {
		return nil
	}
	h.last[q.Instrument] = q
	for sub := range h.subs {
		if sub.instrument != q.Instrument {
			continue
		}
		select {
		case sub.ch <- q:
		default:
		}
	}
	return nil
}

func (h *QuoteHub) GetQuote(ctx context.Context, instrument domain.Instrument) (*domain.Quote, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	q, ok := h.last[instrument]
	if !ok {
		return nil, nil
	}
	return &q, nil
}
