package domain

import (
	"fmt"
	"time"
)

type Side string
type OrderType string
type OrderStatus string

const (
	Buy    Side      = "BUY"
	Sell   Side      = "SELL"
	Limit  OrderType = "LIMIT"
	Market OrderType = "MARKET"

	Pending                     OrderStatus = "PENDING"
	PartiallyFilled             OrderStatus = "PARTIALLY_FILLED"
	Filled                      OrderStatus = "FILLED"
	Cancelled                   OrderStatus = "CANCELLED"
	PartiallyFilledAndCancelled OrderStatus = "PARTIALLY_FILLED_AND_CANCELLED"
)

// Upper bounds for a single order. MaxPrice * MaxVolume fits in int64, so an
// order's cost cannot overflow however its volume is split across trades.
const (
	MaxPrice  int64  = 1_000_000_000
	MaxVolume uint64 = 1_000_000_000
)

func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Buy, Sell:
		return Side(s), nil
	}
	return "", fmt.Errorf("%w: invalid side %q", ErrInvalidRequest, s)
}

func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(s) {
	case Limit, Market:
		return OrderType(s), nil
	}
	return "", fmt.Errorf("%w: invalid order type %q", ErrInvalidRequest, s)
}

// Terminal reports whether no further matching or cancellation can change the order.
func (s OrderStatus) Terminal() bool {
	return s == Filled || s == Cancelled || s == PartiallyFilledAndCancelled
}

// SubmitRequest carries the caller-supplied terms of a new order.
type SubmitRequest struct {
	CustomerID uint64
	Instrument Instrument
	Side       Side
	Type       OrderType
	LimitPrice int64 // ignored for market orders
	Volume     uint64
}

func (r SubmitRequest) Validate() error {
	if !r.Instrument.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownInstrument, r.Instrument)
	}
	if r.Side != Buy && r.Side != Sell {
		return fmt.Errorf("%w: invalid side %q", ErrInvalidRequest, r.Side)
	}
	if r.Type != Limit && r.Type != Market {
		return fmt.Errorf("%w: invalid order type %q", ErrInvalidRequest, r.Type)
	}
	if r.Volume == 0 || r.Volume > MaxVolume {
		return fmt.Errorf("%w: volume must be in 1..%d", ErrInvalidRequest, MaxVolume)
	}
	if r.Type == Limit && (r.LimitPrice <= 0 || r.LimitPrice > MaxPrice) {
		return fmt.Errorf("%w: limit price must be in 1..%d", ErrInvalidRequest, MaxPrice)
	}
	return nil
}

// Order is one submitted order. The owning order book mutates Remaining,
// Filled, Cost, FinishedAt and Cancelled; everyone else only ever sees copies.
type Order struct {
	ID         uint64
	CustomerID uint64
	Instrument Instrument
	Side       Side
	Type       OrderType
	LimitPrice int64

	Remaining  uint64
	Filled     uint64
	Cost       int64 // sum of execution price * matched volume
	FinishedAt time.Time
	Cancelled  bool
}

func NewOrder(id uint64, req SubmitRequest) *Order {
	o := &Order{
		ID:         id,
		CustomerID: req.CustomerID,
		Instrument: req.Instrument,
		Side:       req.Side,
		Type:       req.Type,
		LimitPrice: req.LimitPrice,
		Remaining:  req.Volume,
	}
	if o.Type == Market {
		o.LimitPrice = 0
	}
	return o
}

// Status is derived from the fill counters and the cancellation flag.
func (o Order) Status() OrderStatus {
	if o.Cancelled {
		if o.Filled == 0 {
			return Cancelled
		}
		return PartiallyFilledAndCancelled
	}
	if o.Filled == 0 {
		return Pending
	}
	if o.Remaining == 0 {
		return Filled
	}
	return PartiallyFilled
}

// MeanMatchedPrice truncates toward zero; zero when nothing has matched.
func (o Order) MeanMatchedPrice() int64 {
	if o.Filled == 0 {
		return 0
	}
	return o.Cost / int64(o.Filled)
}

func (o Order) TotalVolume() uint64 { return o.Filled + o.Remaining }

func (o Order) Finished() bool { return !o.FinishedAt.IsZero() }

// Fill books a trade of volume at price against the order.
func (o *Order) Fill(volume uint64, price int64) {
	o.Remaining -= volume
	o.Filled += volume
	o.Cost += price * int64(volume)
}
