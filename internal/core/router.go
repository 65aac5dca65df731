package core

import (
	"fmt"
	"sync"

	"github.com/olyamironova/order-matcher/internal/domain"
)

// Router owns one OrderBook per instrument, allocates order ids and routes
// calls by instrument or by order id. The instrument map is fixed at
// construction; the id map is append-only.
type Router struct {
	books       map[domain.Instrument]*OrderBook
	instruments []domain.Instrument
	seq         *Sequencer

	mu    sync.RWMutex
	owner map[uint64]*OrderBook
}

type RouterOption func(*routerOptions)

type routerOptions struct {
	seq      *Sequencer
	bookOpts []BookOption
}

// WithSequencer supplies the id source, e.g. to start ids above zero.
func WithSequencer(seq *Sequencer) RouterOption {
	return func(o *routerOptions) { o.seq = seq }
}

// WithBookOptions applies opts to every book the router creates.
func WithBookOptions(opts ...BookOption) RouterOption {
	return func(o *routerOptions) { o.bookOpts = append(o.bookOpts, opts...) }
}

// NewRouter creates an empty book for each instrument. Unknown or repeated
// instruments are rejected.
func NewRouter(instruments []domain.Instrument, opts ...RouterOption) (*Router, error) {
	if len(instruments) == 0 {
		return nil, fmt.Errorf("router: no instruments configured")
	}
	o := routerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.seq == nil {
		o.seq = NewSequencer(0)
	}

	r := &Router{
		books: make(map[domain.Instrument]*OrderBook, len(instruments)),
		seq:   o.seq,
		owner: make(map[uint64]*OrderBook),
	}
	for _, in := range instruments {
		if !in.Valid() {
			return nil, fmt.Errorf("router: %w: %q", domain.ErrUnknownInstrument, in)
		}
		if _, dup := r.books[in]; dup {
			return nil, fmt.Errorf("router: instrument %s listed twice", in)
		}
		r.books[in] = NewOrderBook(in, o.bookOpts...)
		r.instruments = append(r.instruments, in)
	}
	return r, nil
}

// Instruments lists the routed instruments in configuration order.
func (r *Router) Instruments() []domain.Instrument {
	return append([]domain.Instrument(nil), r.instruments...)
}

func (r *Router) book(in domain.Instrument) (*OrderBook, error) {
	ob, ok := r.books[in]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not traded here", domain.ErrUnknownInstrument, in)
	}
	return ob, nil
}

func (r *Router) bookFor(id uint64) (*OrderBook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ob, ok := r.owner[id]
	return ob, ok
}

// SubmitOrder validates req, assigns the next order id and matches the order
// in its instrument's book; emit may be nil. Invalid requests are rejected
// before any id is consumed.
func (r *Router) SubmitOrder(req domain.SubmitRequest, emit Emit) (domain.Order, Changes, error) {
	if err := req.Validate(); err != nil {
		return domain.Order{}, Changes{}, err
	}
	ob, err := r.book(req.Instrument)
	if err != nil {
		return domain.Order{}, Changes{}, err
	}
	id, err := r.seq.Next()
	if err != nil {
		return domain.Order{}, Changes{}, fmt.Errorf("router: %w", err)
	}

	r.mu.Lock()
	r.owner[id] = ob
	r.mu.Unlock()

	order, changes := ob.SubmitOrder(id, req, emit)
	return order, changes, nil
}

func (r *Router) RetrieveOrder(id uint64) (domain.Order, error) {
	ob, ok := r.bookFor(id)
	if !ok {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	o, ok := ob.RetrieveOrder(id)
	if !ok {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return o, nil
}

func (r *Router) CancelOrder(id uint64, emit Emit) (domain.OrderStatus, Changes, error) {
	ob, ok := r.bookFor(id)
	if !ok {
		return "", Changes{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return ob.CancelOrder(id, emit)
}

func (r *Router) GetQuote(in domain.Instrument) (domain.Quote, error) {
	ob, err := r.book(in)
	if err != nil {
		return domain.Quote{}, err
	}
	return ob.GetQuote(), nil
}

func (r *Router) Depth(in domain.Instrument, n int) (domain.BookSnapshot, error) {
	ob, err := r.book(in)
	if err != nil {
		return domain.BookSnapshot{}, err
	}
	return ob.Depth(n), nil
}

func (r *Router) History(in domain.Instrument, n int) ([]domain.Order, error) {
	ob, err := r.book(in)
	if err != nil {
		return nil, err
	}
	return ob.History(n), nil
}
