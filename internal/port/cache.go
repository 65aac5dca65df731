package port

import (
	"context"

	"github.com/olyamironova/order-matcher/internal/domain"
)

// QuoteStore receives the latest quote of an instrument after every change.
type QuoteStore interface {
	SetQuote(ctx context.Context, q domain.Quote) error
	GetQuote(ctx context.Context, instrument domain.Instrument) (*domain.Quote, error)
}
