package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/olyamironova/order-matcher/internal/domain"
)

// fixedClock returns the same instant on every call.
func fixedClock() func() time.Time {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

type bookHarness struct {
	ob     *OrderBook
	nextID uint64
}

func newBookHarness(opts ...BookOption) *bookHarness {
	return &bookHarness{ob: NewOrderBook(domain.BTCUSD, opts...)}
}

func (h *bookHarness) submit(side domain.Side, typ domain.OrderType, price int64, volume uint64) (domain.Order, Changes) {
	h.nextID++
	return h.ob.SubmitOrder(h.nextID, domain.SubmitRequest{
		CustomerID: 1,
		Instrument: domain.BTCUSD,
		Side:       side,
		Type:       typ,
		LimitPrice: price,
		Volume:     volume,
	}, nil)
}

func (h *bookHarness) limit(side domain.Side, price int64, volume uint64) domain.Order {
	o, _ := h.submit(side, domain.Limit, price, volume)
	return o
}

func (h *bookHarness) market(side domain.Side, volume uint64) domain.Order {
	o, _ := h.submit(side, domain.Market, 0, volume)
	return o
}

func (h *bookHarness) get(t testing.TB, id uint64) domain.Order {
	t.Helper()
	o, ok := h.ob.RetrieveOrder(id)
	require.True(t, ok, "order %d", id)
	return o
}

func TestOrderBook_SubmitOrder(t *testing.T) {
	t.Run("limit buy then crossing limit sell", func(t *testing.T) {
		h := newBookHarness()
		buy := h.limit(domain.Buy, 10000, 10)
		assert.Equal(t, domain.Pending, buy.Status())

		sell := h.limit(domain.Sell, 10000, 10)
		assert.Equal(t, domain.Filled, sell.Status())
		assert.Equal(t, uint64(10), sell.Filled)
		assert.Equal(t, int64(10000), sell.MeanMatchedPrice())

		buy = h.get(t, buy.ID)
		assert.Equal(t, domain.Filled, buy.Status())
		assert.Equal(t, int64(10000), buy.MeanMatchedPrice())
		assert.True(t, buy.Finished())
	})

	t.Run("limit buy then market sell", func(t *testing.T) {
		h := newBookHarness()
		buy := h.limit(domain.Buy, 10000, 10)
		sell := h.market(domain.Sell, 10)

		assert.Equal(t, domain.Filled, sell.Status())
		assert.Equal(t, int64(10000), sell.MeanMatchedPrice())
		assert.Equal(t, domain.Filled, h.get(t, buy.ID).Status())
	})

	t.Run("non crossing orders rest", func(t *testing.T) {
		h := newBookHarness()
		h.limit(domain.Buy, 99, 5)
		sell := h.limit(domain.Sell, 100, 5)

		assert.Equal(t, domain.Pending, sell.Status())
		q := h.ob.GetQuote()
		require.NotNil(t, q.Bid)
		require.NotNil(t, q.Ask)
		assert.Equal(t, int64(99), *q.Bid)
		assert.Equal(t, int64(100), *q.Ask)
	})

	t.Run("trade executes at maker price", func(t *testing.T) {
		h := newBookHarness()
		h.limit(domain.Sell, 95, 5)
		buy := h.limit(domain.Buy, 100, 5)
		assert.Equal(t, int64(95), buy.MeanMatchedPrice())
	})

	t.Run("taker sweeps several levels", func(t *testing.T) {
		h := newBookHarness()
		h.limit(domain.Sell, 10, 3)
		h.limit(domain.Sell, 11, 2)
		h.limit(domain.Sell, 12, 4)

		buy, changes := h.submit(domain.Buy, domain.Limit, 11, 6)
		assert.Equal(t, uint64(5), buy.Filled)
		assert.Equal(t, int64(52), buy.Cost)
		assert.Equal(t, int64(10), buy.MeanMatchedPrice())
		assert.Equal(t, domain.PartiallyFilled, buy.Status())

		require.Len(t, changes.Orders, 3)
		assert.Equal(t, buy.ID, changes.Orders[0].ID)
		assert.Len(t, changes.Finished(), 2)
		require.NotNil(t, changes.Quote.Bid)
		assert.Equal(t, int64(11), *changes.Quote.Bid)
		assert.Equal(t, int64(12), *changes.Quote.Ask)
	})
}

func TestOrderBook_PriceTimePriority(t *testing.T) {
	t.Run("lower ask fills first", func(t *testing.T) {
		h := newBookHarness()
		s100 := h.limit(domain.Sell, 100, 1)
		s99 := h.limit(domain.Sell, 99, 1)

		buy := h.market(domain.Buy, 1)
		assert.Equal(t, int64(99), buy.MeanMatchedPrice())
		assert.Equal(t, domain.Filled, h.get(t, s99.ID).Status())
		assert.Equal(t, domain.Pending, h.get(t, s100.ID).Status())
	})

	t.Run("earlier order fills first at equal price", func(t *testing.T) {
		h := newBookHarness()
		first := h.limit(domain.Sell, 100, 1)
		second := h.limit(domain.Sell, 100, 1)

		h.market(domain.Buy, 1)
		assert.Equal(t, domain.Filled, h.get(t, first.ID).Status())
		assert.Equal(t, domain.Pending, h.get(t, second.ID).Status())
	})

	t.Run("higher bid fills first", func(t *testing.T) {
		h := newBookHarness()
		b90 := h.limit(domain.Buy, 90, 1)
		b95 := h.limit(domain.Buy, 95, 1)

		sell := h.limit(domain.Sell, 80, 1)
		assert.Equal(t, int64(95), sell.MeanMatchedPrice())
		assert.Equal(t, domain.Filled, h.get(t, b95.ID).Status())
		assert.Equal(t, domain.Pending, h.get(t, b90.ID).Status())
	})
}

func TestOrderBook_PartialFill(t *testing.T) {
	h := newBookHarness()
	buy := h.limit(domain.Buy, 100, 10)
	sell := h.limit(domain.Sell, 100, 6)

	assert.Equal(t, domain.Filled, sell.Status())
	assert.Equal(t, uint64(6), sell.Filled)

	buy = h.get(t, buy.ID)
	assert.Equal(t, domain.PartiallyFilled, buy.Status())
	assert.Equal(t, uint64(6), buy.Filled)
	assert.Equal(t, uint64(4), buy.Remaining)
	assert.False(t, buy.Finished())

	snap := h.ob.Depth(0)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, buy.ID, snap.Bids[0].ID)
	assert.Empty(t, snap.Asks)
}

func TestOrderBook_MarketRemainder(t *testing.T) {
	t.Run("insufficient liquidity", func(t *testing.T) {
		h := newBookHarness()
		h.limit(domain.Sell, 50, 4)

		buy := h.market(domain.Buy, 10)
		assert.Equal(t, uint64(4), buy.Filled)
		assert.Equal(t, int64(50), buy.MeanMatchedPrice())
		assert.Equal(t, uint64(10), buy.TotalVolume())
		assert.Equal(t, domain.PartiallyFilledAndCancelled, buy.Status())
		assert.True(t, buy.Finished())

		q := h.ob.GetQuote()
		assert.Nil(t, q.Bid, "market remainder never rests")
		assert.Nil(t, q.Ask)
	})

	t.Run("empty book", func(t *testing.T) {
		h := newBookHarness()
		sell := h.market(domain.Sell, 3)
		assert.Equal(t, domain.Cancelled, sell.Status())
		assert.Equal(t, uint64(0), sell.Filled)
		assert.Len(t, h.ob.History(0), 1)
	})
}

func TestOrderBook_CancelOrder(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		h := newBookHarness()
		buy := h.limit(domain.Buy, 100, 10)

		st, changes, err := h.ob.CancelOrder(buy.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.Cancelled, st)
		require.Len(t, changes.Orders, 1)
		assert.Nil(t, changes.Quote.Bid)
		after := h.get(t, buy.ID)

		st, changes, err = h.ob.CancelOrder(buy.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.Cancelled, st)
		assert.Empty(t, changes.Orders)
		assert.Equal(t, after, h.get(t, buy.ID))
		assert.Len(t, h.ob.History(0), 1)
	})

	t.Run("partially filled", func(t *testing.T) {
		h := newBookHarness()
		buy := h.limit(domain.Buy, 100, 10)
		h.limit(domain.Sell, 100, 6)

		st, _, err := h.ob.CancelOrder(buy.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.PartiallyFilledAndCancelled, st)
		assert.Empty(t, h.ob.Depth(0).Bids)
	})

	t.Run("filled order stays filled", func(t *testing.T) {
		h := newBookHarness()
		buy := h.limit(domain.Buy, 100, 1)
		h.limit(domain.Sell, 100, 1)

		st, changes, err := h.ob.CancelOrder(buy.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.Filled, st)
		assert.Empty(t, changes.Orders)
	})

	t.Run("unknown id", func(t *testing.T) {
		h := newBookHarness()
		_, _, err := h.ob.CancelOrder(42, nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestOrderBook_GetQuote(t *testing.T) {
	h := newBookHarness()
	q := h.ob.GetQuote()
	assert.Equal(t, domain.BTCUSD, q.Instrument)
	assert.Nil(t, q.Bid)
	assert.Nil(t, q.Ask)

	h.limit(domain.Buy, 90, 1)
	h.limit(domain.Buy, 95, 1)
	h.limit(domain.Sell, 105, 1)
	h.limit(domain.Sell, 100, 1)

	q = h.ob.GetQuote()
	require.NotNil(t, q.Bid)
	require.NotNil(t, q.Ask)
	assert.Equal(t, int64(95), *q.Bid)
	assert.Equal(t, int64(100), *q.Ask)
}

func TestOrderBook_HistoryTieBreak(t *testing.T) {
	h := newBookHarness(WithClock(fixedClock()))
	var ids []uint64
	for i := 0; i < 5; i++ {
		o := h.limit(domain.Buy, 100, 1)
		ids = append(ids, o.ID)
	}
	for _, id := range ids {
		_, _, err := h.ob.CancelOrder(id, nil)
		require.NoError(t, err)
	}

	history := h.ob.History(0)
	require.Len(t, history, len(ids), "same finish time must not collapse entries")
	for i, o := range history {
		assert.Equal(t, ids[len(ids)-1-i], o.ID, "most recent first")
	}
}

func TestOrderBook_DepthAndHistoryLimits(t *testing.T) {
	h := newBookHarness()
	for p := int64(1); p <= 5; p++ {
		h.limit(domain.Buy, 100+p, 1)
		h.limit(domain.Sell, 200+p, 1)
	}

	snap := h.ob.Depth(2)
	require.Len(t, snap.Bids, 2)
	require.Len(t, snap.Asks, 2)
	assert.Equal(t, int64(105), snap.Bids[0].LimitPrice)
	assert.Equal(t, int64(104), snap.Bids[1].LimitPrice)
	assert.Equal(t, int64(201), snap.Asks[0].LimitPrice)
	assert.Equal(t, int64(202), snap.Asks[1].LimitPrice)

	assert.Len(t, h.ob.Depth(0).Bids, 5)
	assert.Empty(t, h.ob.History(3))

	h.market(domain.Sell, 3)
	assert.Len(t, h.ob.History(0), 4)
	assert.Len(t, h.ob.History(2), 2)
}

func TestOrderBook_RetrieveReturnsSnapshot(t *testing.T) {
	h := newBookHarness()
	buy := h.limit(domain.Buy, 100, 10)

	before := h.get(t, buy.ID)
	h.limit(domain.Sell, 100, 4)

	assert.Equal(t, uint64(0), before.Filled, "earlier snapshot must not change")
	assert.Equal(t, uint64(4), h.get(t, buy.ID).Filled)

	_, ok := h.ob.RetrieveOrder(999)
	assert.False(t, ok)
}

func TestOrderBook_Panics(t *testing.T) {
	h := newBookHarness()
	h.limit(domain.Buy, 100, 1)

	assert.Panics(t, func() {
		h.ob.SubmitOrder(1, domain.SubmitRequest{Instrument: domain.BTCUSD, Side: domain.Sell, Type: domain.Limit, LimitPrice: 200, Volume: 1}, nil)
	}, "duplicate id")
	assert.Panics(t, func() {
		h.ob.SubmitOrder(2, domain.SubmitRequest{Instrument: domain.ETHUSD, Side: domain.Sell, Type: domain.Limit, LimitPrice: 200, Volume: 1}, nil)
	}, "wrong instrument")
}

// checkBook asserts the structural invariants of ob.
func checkBook(t require.TestingT, ob *OrderBook) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	active := make(map[uint64]domain.Side)
	for side, idx := range map[domain.Side]interface {
		Scan(func(*domain.Order) bool)
	}{domain.Buy: ob.buys, domain.Sell: ob.sells} {
		idx.Scan(func(o *domain.Order) bool {
			_, dup := active[o.ID]
			require.False(t, dup, "order %d rests on both sides", o.ID)
			active[o.ID] = side
			require.Equal(t, side, o.Side)
			require.Equal(t, domain.Limit, o.Type, "only limit orders rest")
			require.Positive(t, o.Remaining)
			require.False(t, o.Status().Terminal())
			return true
		})
	}

	finished := 0
	ob.history.Scan(func(o *domain.Order) bool {
		require.True(t, o.Status().Terminal(), "order %d in history is %s", o.ID, o.Status())
		_, resting := active[o.ID]
		require.False(t, resting)
		finished++
		return true
	})
	require.Equal(t, len(ob.orders), len(active)+finished, "every order is either active or finished")

	var bought, sold uint64
	for _, o := range ob.orders {
		if o.Side == domain.Buy {
			bought += o.Filled
		} else {
			sold += o.Filled
		}
	}
	require.Equal(t, bought, sold)

	if bid, ok := ob.buys.Min(); ok {
		if ask, ok := ob.sells.Min(); ok {
			require.Less(t, bid.LimitPrice, ask.LimitPrice, "book must not stay crossed")
		}
	}
}

func TestOrderBook_Invariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := newBookHarness(WithClock(fixedClock()))
		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0, 1:
				side := rapid.SampledFrom([]domain.Side{domain.Buy, domain.Sell}).Draw(t, "side")
				price := rapid.Int64Range(90, 110).Draw(t, "price")
				volume := rapid.Uint64Range(1, 20).Draw(t, "volume")
				h.limit(side, price, volume)
			case 2:
				side := rapid.SampledFrom([]domain.Side{domain.Buy, domain.Sell}).Draw(t, "side")
				volume := rapid.Uint64Range(1, 30).Draw(t, "volume")
				o := h.market(side, volume)
				require.True(t, o.Status().Terminal(), "market orders never rest")
			case 3:
				if h.nextID == 0 {
					continue
				}
				id := rapid.Uint64Range(1, h.nextID).Draw(t, "cancel")
				first, _, err := h.ob.CancelOrder(id, nil)
				require.NoError(t, err)
				second, changes, err := h.ob.CancelOrder(id, nil)
				require.NoError(t, err)
				require.Equal(t, first, second)
				require.Empty(t, changes.Orders)
			case 4:
				q := h.ob.GetQuote()
				if q.Bid != nil && q.Ask != nil {
					require.Less(t, *q.Bid, *q.Ask)
				}
			}
			checkBook(t, h.ob)
		}
	})
}

func TestOrderBook_Emit(t *testing.T) {
	ob := NewOrderBook(domain.BTCUSD)
	var emitted []Changes
	emit := func(c Changes) {
		require.False(t, ob.mu.TryLock(), "emit runs under the book lock")
		emitted = append(emitted, c)
	}

	_, changes := ob.SubmitOrder(1, limitReq(domain.BTCUSD, domain.Sell, 100, 2), emit)
	require.Len(t, emitted, 1)
	assert.Equal(t, changes, emitted[0])

	ob.SubmitOrder(2, limitReq(domain.BTCUSD, domain.Buy, 100, 1), emit)
	require.Len(t, emitted, 2)
	assert.Len(t, emitted[1].Orders, 2)

	_, _, err := ob.CancelOrder(1, emit)
	require.NoError(t, err)
	require.Len(t, emitted, 3)
	assert.Equal(t, domain.PartiallyFilledAndCancelled, emitted[2].Orders[0].Status())

	_, _, err = ob.CancelOrder(1, emit)
	require.NoError(t, err)
	assert.Len(t, emitted, 3, "cancelling a terminal order emits nothing")
}
