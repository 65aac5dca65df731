package in_memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olyamironova/order-matcher/internal/domain"
)

func TestCache(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	q, err := c.GetQuote(ctx, domain.BTCUSD)
	require.NoError(t, err)
	assert.Nil(t, q)

	ask := int64(101)
	require.NoError(t, c.SetQuote(ctx, domain.Quote{Instrument: domain.BTCUSD, Ask: &ask}))
	q, err = c.GetQuote(ctx, domain.BTCUSD)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, int64(101), *q.Ask)

	require.NoError(t, c.SetQuote(ctx, domain.Quote{Instrument: domain.BTCUSD}))
	q, err = c.GetQuote(ctx, domain.BTCUSD)
	require.NoError(t, err)
	assert.Nil(t, q.Ask, "last delivered quote wins")
	assert.Len(t, c.Updates(domain.BTCUSD), 2)
	assert.Empty(t, c.Updates(domain.ETHUSD))
}

func TestArchiveAndPublisher(t *testing.T) {
	ctx := context.Background()

	a := NewArchive()
	require.NoError(t, a.ArchiveOrders(ctx, []domain.Order{{ID: 1}, {ID: 2}, {ID: 1}}))
	assert.Equal(t, 2, a.Len())
	_, ok := a.Get(3)
	assert.False(t, ok)

	p := NewPublisher()
	require.NoError(t, p.Publish(ctx, []domain.OrderEvent{{OrderID: 1}}))
	require.NoError(t, p.Publish(ctx, []domain.OrderEvent{{OrderID: 2}}))
	events := p.Events()
	require.Len(t, events, 2)
	assert.Equal(t, uint64(2), events[1].OrderID)
}
