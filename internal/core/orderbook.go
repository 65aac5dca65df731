package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/olyamironova/order-matcher/internal/domain"
	"github.com/tidwall/btree"
)

// OrderBook owns every order of one instrument. All state lives behind mu:
// one matching pass mutates the taker and every maker it consumes, and no
// cancel or retrieve may observe it half done. The btrees themselves run
// without internal locks.
type OrderBook struct {
	instrument domain.Instrument
	now        func() time.Time

	mu      sync.Mutex
	orders  map[uint64]*domain.Order
	buys    *btree.BTreeG[*domain.Order] // price desc, id asc
	sells   *btree.BTreeG[*domain.Order] // price asc, id asc
	history *btree.BTreeG[*domain.Order] // finish time asc, id asc
}

// Changes describes what a mutating call did: the snapshot of every order
// whose state changed (the order the call was about comes first) and the
// quote after the call.
type Changes struct {
	Orders []domain.Order
	Quote  domain.Quote
}

// Finished returns the changed orders that are now terminal.
func (c Changes) Finished() []domain.Order {
	var out []domain.Order
	for _, o := range c.Orders {
		if o.Status().Terminal() {
			out = append(out, o)
		}
	}
	return out
}

// Emit receives the changes of a mutating call while the book is still
// locked, so changes of one book reach it in the order they were applied.
// It must not block or call back into the book.
type Emit func(Changes)

type BookOption func(*OrderBook)

// WithClock replaces time.Now as the source of finish timestamps.
func WithClock(now func() time.Time) BookOption {
	return func(ob *OrderBook) {
		ob.now = now
	}
}

func NewOrderBook(instrument domain.Instrument, opts ...BookOption) *OrderBook {
	noLocks := btree.Options{NoLocks: true}
	ob := &OrderBook{
		instrument: instrument,
		now:        time.Now,
		orders:     make(map[uint64]*domain.Order),
		buys:       btree.NewBTreeGOptions(buyLess, noLocks),
		sells:      btree.NewBTreeGOptions(sellLess, noLocks),
		history:    btree.NewBTreeGOptions(historyLess, noLocks),
	}
	for _, opt := range opts {
		opt(ob)
	}
	return ob
}

func buyLess(a, b *domain.Order) bool {
	if a.LimitPrice != b.LimitPrice {
		return a.LimitPrice > b.LimitPrice
	}
	return a.ID < b.ID
}

func sellLess(a, b *domain.Order) bool {
	if a.LimitPrice != b.LimitPrice {
		return a.LimitPrice < b.LimitPrice
	}
	return a.ID < b.ID
}

// historyLess breaks finish time ties by id; without it two orders finishing
// in the same tick would collapse into one entry.
func historyLess(a, b *domain.Order) bool {
	if !a.FinishedAt.Equal(b.FinishedAt) {
		return a.FinishedAt.Before(b.FinishedAt)
	}
	return a.ID < b.ID
}

// SubmitOrder creates order id from req and matches it against the opposite
// side, passing the changes to emit when it is not nil. The caller
// guarantees req is valid for this book and id is fresh; a duplicate id is a
// programming error and panics.
func (ob *OrderBook) SubmitOrder(id uint64, req domain.SubmitRequest, emit Emit) (domain.Order, Changes) {
	if req.Instrument != ob.instrument {
		panic(fmt.Sprintf("orderbook %s: order %d routed for %s", ob.instrument, id, req.Instrument))
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	if _, dup := ob.orders[id]; dup {
		panic(fmt.Sprintf("orderbook %s: duplicate order id %d", ob.instrument, id))
	}
	o := domain.NewOrder(id, req)
	ob.orders[id] = o

	makers := ob.match(o)

	changes := Changes{Orders: make([]domain.Order, 0, len(makers)+1)}
	changes.Orders = append(changes.Orders, *o)
	for _, m := range makers {
		changes.Orders = append(changes.Orders, *m)
	}
	changes.Quote = ob.quoteLocked()
	if emit != nil {
		emit(changes)
	}
	return *o, changes
}

// match walks the opposite side in price/time priority. Trades execute at
// the maker's price. A limit taker stops at the first maker whose price is
// worse than its limit; a market taker takes whatever is there and its
// unfilled remainder is cancelled rather than rested.
func (ob *OrderBook) match(taker *domain.Order) []*domain.Order {
	own, opposite := ob.sides(taker.Side)

	var makers []*domain.Order
	for taker.Remaining > 0 {
		maker, ok := opposite.Min()
		if !ok || !crosses(taker, maker) {
			break
		}
		volume := min(taker.Remaining, maker.Remaining)
		price := maker.LimitPrice
		taker.Fill(volume, price)
		maker.Fill(volume, price)
		makers = append(makers, maker)

		if maker.Remaining == 0 {
			opposite.Delete(maker)
			ob.retire(maker)
		}
	}

	switch {
	case taker.Remaining == 0:
		ob.retire(taker)
	case taker.Type == domain.Market:
		taker.Cancelled = true
		ob.retire(taker)
	default:
		own.Set(taker)
	}
	return makers
}

func crosses(taker, maker *domain.Order) bool {
	if taker.Type == domain.Market {
		return true
	}
	if taker.Side == domain.Buy {
		return maker.LimitPrice <= taker.LimitPrice
	}
	return maker.LimitPrice >= taker.LimitPrice
}

// sides returns the index o rests in and the one it matches against.
func (ob *OrderBook) sides(side domain.Side) (own, opposite *btree.BTreeG[*domain.Order]) {
	if side == domain.Buy {
		return ob.buys, ob.sells
	}
	return ob.sells, ob.buys
}

// retire stamps the finish time and moves o into history. o must already be
// out of the active indices.
func (ob *OrderBook) retire(o *domain.Order) {
	o.FinishedAt = ob.now()
	ob.history.Set(o)
}

func (ob *OrderBook) RetrieveOrder(id uint64) (domain.Order, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	o, ok := ob.orders[id]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

// CancelOrder cancels an active order and returns its terminal status.
// Cancelling a terminal order changes nothing, emits nothing and returns
// its status as is.
func (ob *OrderBook) CancelOrder(id uint64, emit Emit) (domain.OrderStatus, Changes, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	o, ok := ob.orders[id]
	if !ok {
		return "", Changes{}, fmt.Errorf("orderbook %s: order %d: %w", ob.instrument, id, domain.ErrNotFound)
	}
	if st := o.Status(); st.Terminal() {
		return st, Changes{}, nil
	}

	own, _ := ob.sides(o.Side)
	own.Delete(o)
	o.Cancelled = true
	ob.retire(o)

	changes := Changes{Orders: []domain.Order{*o}, Quote: ob.quoteLocked()}
	if emit != nil {
		emit(changes)
	}
	return o.Status(), changes, nil
}

func (ob *OrderBook) GetQuote() domain.Quote {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.quoteLocked()
}

func (ob *OrderBook) quoteLocked() domain.Quote {
	q := domain.Quote{Instrument: ob.instrument}
	if best, ok := ob.buys.Min(); ok {
		bid := best.LimitPrice
		q.Bid = &bid
	}
	if best, ok := ob.sells.Min(); ok {
		ask := best.LimitPrice
		q.Ask = &ask
	}
	return q
}

// Depth returns up to n active orders per side in priority order; n <= 0 means all.
func (ob *OrderBook) Depth(n int) domain.BookSnapshot {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return domain.BookSnapshot{
		Instrument: ob.instrument,
		Bids:       collect(ob.buys.Scan, n),
		Asks:       collect(ob.sells.Scan, n),
		Timestamp:  ob.now(),
	}
}

// History returns up to n finished orders, most recent first; n <= 0 means all.
func (ob *OrderBook) History(n int) []domain.Order {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return collect(ob.history.Reverse, n)
}

func collect(walk func(func(*domain.Order) bool), n int) []domain.Order {
	out := []domain.Order{}
	walk(func(o *domain.Order) bool {
		out = append(out, *o)
		return n <= 0 || len(out) < n
	})
	return out
}
