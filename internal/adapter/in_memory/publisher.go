package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/order-matcher/internal/domain"
	"github.com/olyamironova/order-matcher/internal/port"
)

// Publisher records published events in order.
type Publisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

var _ port.EventPublisher = (*Publisher)(nil)

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(ctx context.Context, events []domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *Publisher) Events() []domain.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OrderEvent(nil), p.events...)
}
