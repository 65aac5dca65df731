package port

import (
	"context"

	"github.com/olyamironova/order-matcher/internal/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, events []domain.OrderEvent) error
}
