package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/order-matcher/internal/domain"
	"github.com/olyamironova/order-matcher/internal/port"
)

// Archive keeps archived orders in memory, keyed by order id.
type Archive struct {
	mu     sync.Mutex
	orders map[uint64]domain.Order
}

var _ port.OrderArchive = (*Archive)(nil)

func NewArchive() *Archive {
	return &Archive{orders: make(map[uint64]domain.Order)}
}

func (a *Archive) ArchiveOrders(ctx context.Context, orders []domain.Order) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, o := range orders {
		a.orders[o.ID] = o
	}
	return nil
}

func (a *Archive) Get(id uint64) (domain.Order, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.orders[id]
	return o, ok
}

func (a *Archive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.orders)
}
