package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventAccepted  EventKind = "ACCEPTED"
	EventMatched   EventKind = "MATCHED"
	EventCancelled EventKind = "CANCELLED"
)

// OrderEvent records one state change of one order.
type OrderEvent struct {
	ID         string      `json:"id"`
	Kind       EventKind   `json:"kind"`
	OrderID    uint64      `json:"order_id"`
	CustomerID uint64      `json:"customer_id"`
	Instrument Instrument  `json:"instrument"`
	Side       Side        `json:"side"`
	Type       OrderType   `json:"type"`
	LimitPrice int64       `json:"limit_price"`
	Volume     uint64      `json:"volume"`
	Matched    uint64      `json:"matched_volume"`
	MeanPrice  int64       `json:"mean_matched_price"`
	Status     OrderStatus `json:"status"`
	Timestamp  time.Time   `json:"timestamp"`
}

func NewOrderEvent(kind EventKind, o Order, ts time.Time) OrderEvent {
	return OrderEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Instrument: o.Instrument,
		Side:       o.Side,
		Type:       o.Type,
		LimitPrice: o.LimitPrice,
		Volume:     o.TotalVolume(),
		Matched:    o.Filled,
		MeanPrice:  o.MeanMatchedPrice(),
		Status:     o.Status(),
		Timestamp:  ts,
	}
}
