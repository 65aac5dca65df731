package domain

import "time"

// BookSnapshot lists active orders of one instrument in priority order.
type BookSnapshot struct {
	Instrument Instrument
	Bids       []Order
	Asks       []Order
	Timestamp  time.Time
}

// Quote is the best bid and ask of one instrument. A nil side is empty.
type Quote struct {
	Instrument Instrument `json:"instrument"`
	Bid        *int64     `json:"bid,omitempty"`
	Ask        *int64     `json:"ask,omitempty"`
}

func (q Quote) Equal(other Quote) bool {
	return q.Instrument == other.Instrument && eqPrice(q.Bid, other.Bid) && eqPrice(q.Ask, other.Ask)
}

func eqPrice(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
