package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/order-matcher/internal/domain"
	"github.com/olyamironova/order-matcher/internal/port"
)

// Cache is a QuoteStore that keeps every quote it was given, per instrument,
// in delivery order.
type Cache struct {
	mu      sync.Mutex
	updates map[domain.Instrument][]domain.Quote
}

var _ port.QuoteStore = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{updates: make(map[domain.Instrument][]domain.Quote)}
}

func (c *Cache) SetQuote(ctx context.Context, q domain.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates[q.Instrument] = append(c.updates[q.Instrument], q)
	return nil
}

// GetQuote returns the last quote delivered for instrument, nil if none was.
func (c *Cache) GetQuote(ctx context.Context, instrument domain.Instrument) (*domain.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	qs := c.updates[instrument]
	if len(qs) == 0 {
		return nil, nil
	}
	q := qs[len(qs)-1]
	return &q, nil
}

func (c *Cache) Updates(instrument domain.Instrument) []domain.Quote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Quote(nil), c.updates[instrument]...)
}
