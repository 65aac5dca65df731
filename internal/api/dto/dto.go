package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubmitOrderRequest struct {
	ClientOrderID string `json:"client_order_id,omitempty"` // for deduplicate
	CustomerID    uint64 `json:"customer_id"`
	Instrument    string `json:"instrument" binding:"required"`
	Side          string `json:"side" binding:"required"`
	Type          string `json:"type" binding:"required"`
	Price         int64  `json:"price,omitempty"` // for limit order
	Volume        int64  `json:"volume"`
}

type SubmitOrderResponse struct {
	OrderID          uint64 `json:"order_id"`
	Status           string `json:"status"`
	MatchedVolume    uint64 `json:"matched_volume"`
	MeanMatchedPrice int64  `json:"mean_matched_price"`
	Message          string `json:"message,omitempty"`
}

type CancelOrderRequest struct {
	OrderID uint64 `json:"order_id" binding:"required"`
}

type CancelOrderResponse struct {
	OrderID uint64 `json:"order_id"`
	Status  string `json:"status"`
}

type GetOrderResponse struct {
	Order Order `json:"order"`
}

type QuoteResponse struct {
	Instrument string           `json:"instrument"`
	Bid        *int64           `json:"bid,omitempty"`
	Ask        *int64           `json:"ask,omitempty"`
	BidDisplay *decimal.Decimal `json:"bid_display,omitempty"`
	AskDisplay *decimal.Decimal `json:"ask_display,omitempty"`
}

type GetOrderbookResponse struct {
	Instrument string    `json:"instrument"`
	Bids       []Order   `json:"bids"`
	Asks       []Order   `json:"asks"`
	Timestamp  time.Time `json:"timestamp"`
}

type GetHistoryResponse struct {
	Instrument string  `json:"instrument"`
	Orders     []Order `json:"orders"`
}

type Instrument struct {
	Symbol string `json:"symbol"`
	Scale  int32  `json:"scale"`
}

type InstrumentsResponse struct {
	Instruments []Instrument `json:"instruments"`
}

type Order struct {
	OrderID           uint64          `json:"order_id"`
	CustomerID        uint64          `json:"customer_id"`
	Instrument        string          `json:"instrument"`
	Side              string          `json:"side"`
	Type              string          `json:"type"`
	LimitPrice        int64           `json:"limit_price"`
	LimitPriceDisplay decimal.Decimal `json:"limit_price_display"`
	Volume            uint64          `json:"volume"`
	MatchedVolume     uint64          `json:"matched_volume"`
	MeanMatchedPrice  int64           `json:"mean_matched_price"`
	Status            string          `json:"status"`
	FinishedAt        *time.Time      `json:"finished_at,omitempty"`
}
