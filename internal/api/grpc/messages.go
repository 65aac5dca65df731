package grpc

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Timestamp is a google.protobuf.Timestamp in its protojson form, an RFC 3339 string.
type Timestamp struct {
	*timestamppb.Timestamp
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return protojson.Marshal(t.Timestamp)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Timestamp = new(timestamppb.Timestamp)
	return protojson.Unmarshal(b, t.Timestamp)
}

// Int64Value is a google.protobuf.Int64Value in its protojson form, a quoted integer.
type Int64Value struct {
	*wrapperspb.Int64Value
}

func (v Int64Value) MarshalJSON() ([]byte, error) {
	return protojson.Marshal(v.Int64Value)
}

func (v *Int64Value) UnmarshalJSON(b []byte) error {
	v.Int64Value = new(wrapperspb.Int64Value)
	return protojson.Unmarshal(b, v.Int64Value)
}

type SubmitOrderRequest struct {
	CustomerID     uint64 `json:"customer_id"`
	Instrument     string `json:"instrument"`
	OrderDirection string `json:"order_direction"`
	OrderType      string `json:"order_type"`
	LimitPrice     int64  `json:"limit_price"`
	Volume         int64  `json:"volume"`
}

// SubmitOrderResponse is the bare minimum a customer needs after submitting.
type SubmitOrderResponse struct {
	OrderID          uint64 `json:"order_id"`
	OrderStatus      string `json:"order_status"`
	MeanMatchedPrice int64  `json:"mean_matched_price"`
	MatchedVolume    uint64 `json:"matched_volume"`
}

type OrderReference struct {
	OrderID uint64 `json:"order_id"`
}

type InstrumentReference struct {
	Instrument string `json:"instrument"`
}

type Order struct {
	OrderID          uint64     `json:"order_id"`
	CustomerID       uint64     `json:"customer_id"`
	Instrument       string     `json:"instrument"`
	OrderDirection   string     `json:"order_direction"`
	OrderType        string     `json:"order_type"`
	OrderStatus      string     `json:"order_status"`
	LimitPrice       int64      `json:"limit_price"`
	Volume           uint64     `json:"volume"`
	MeanMatchedPrice int64      `json:"mean_matched_price"`
	MatchedVolume    uint64     `json:"matched_volume"`
	FinishTime       *Timestamp `json:"finish_time,omitempty"`
}

// RetrieveOrderResponse has a nil Order when the id is unknown.
type RetrieveOrderResponse struct {
	Order *Order `json:"order,omitempty"`
}

type CancelOrderResponse struct {
	OrderWasFound    bool   `json:"order_was_found"`
	FinalOrderStatus string `json:"final_order_status,omitempty"`
}

type Quote struct {
	Instrument string      `json:"instrument"`
	Bid        *Int64Value `json:"bid,omitempty"`
	Ask        *Int64Value `json:"ask,omitempty"`
}
