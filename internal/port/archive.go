package port

import (
	"context"

	"github.com/olyamironova/order-matcher/internal/domain"
)

// OrderArchive is a write-only sink for orders that reached a terminal state.
// Nothing is read back into the engine.
type OrderArchive interface {
	ArchiveOrders(ctx context.Context, orders []domain.Order) error
}
