package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/olyamironova/order-matcher/internal/api/dto"
	"github.com/olyamironova/order-matcher/internal/core"
	"github.com/olyamironova/order-matcher/internal/domain"
	"github.com/olyamironova/order-matcher/internal/middleware"
)

const defaultDepth = 10

type HTTPServer struct {
	Eng      *core.Engine
	quotes   *QuoteHub
	logger   *zap.Logger
	limiter  *middleware.RateLimiter
	upgrader websocket.Upgrader
	dedup    *dedup
}

// NewHTTPServer builds the API. Client order ids are remembered for dedupTTL
// after their submission completes; zero means the default of ten minutes.
func NewHTTPServer(eng *core.Engine, quotes *QuoteHub, logger *zap.Logger, rateLimit, dedupTTL time.Duration) *HTTPServer {
	return &HTTPServer{
		Eng:      eng,
		quotes:   quotes,
		logger:   logger,
		limiter:  middleware.NewRateLimiter(rateLimit),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		dedup:    newDedup(dedupTTL),
	}
}

func (s *HTTPServer) Handler() http.Handler {
	r := gin.New()
	r.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))
	r.Use(middleware.RequestID())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/quotes", s.quoteStream)

	api := r.Group("/")
	api.Use(s.limiter.Middleware())
	api.POST("/orders", s.submitOrder)
	api.POST("/orders/cancel", s.cancelOrder)
	api.GET("/orders/:id", s.getOrder)
	api.GET("/quote", s.getQuote)
	api.GET("/orderbook", s.getOrderbook)
	api.GET("/history", s.getHistory)
	api.GET("/instruments", s.getInstruments)

	return r
}

func (s *HTTPServer) submitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sr, err := ValidateOrder(&req)
	if err != nil {
		writeError(c, err)
		return
	}

	if req.ClientOrderID == "" {
		o, err := s.Eng.SubmitOrder(c.Request.Context(), sr)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, convertSubmit(o, ""))
		return
	}

	// deduplication
	key := fmt.Sprintf("%d/%s", req.CustomerID, req.ClientOrderID)
	sub, fresh := s.dedup.claim(key)
	if fresh {
		o, err := s.Eng.SubmitOrder(c.Request.Context(), sr)
		s.dedup.complete(key, sub, o.ID, err)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, convertSubmit(o, ""))
		return
	}

	select {
	case <-sub.done:
	case <-c.Request.Context().Done():
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "request cancelled"})
		return
	}
	if sub.err != nil {
		writeError(c, sub.err)
		return
	}
	o, err := s.Eng.RetrieveOrder(c.Request.Context(), sub.id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertSubmit(o, "duplicate order"))
}

func (s *HTTPServer) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := s.Eng.CancelOrder(c.Request.Context(), req.OrderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CancelOrderResponse{
		OrderID: req.OrderID,
		Status:  string(st),
	})
}

func (s *HTTPServer) getOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	o, err := s.Eng.RetrieveOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.GetOrderResponse{Order: convertOrder(o)})
}

func (s *HTTPServer) getQuote(c *gin.Context) {
	in, err := domain.ParseInstrument(c.Query("instrument"))
	if err != nil {
		writeError(c, err)
		return
	}
	q, err := s.Eng.GetQuote(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertQuote(q))
}

func (s *HTTPServer) getOrderbook(c *gin.Context) {
	in, err := domain.ParseInstrument(c.Query("instrument"))
	if err != nil {
		writeError(c, err)
		return
	}
	depth, err := strconv.Atoi(c.DefaultQuery("depth", strconv.Itoa(defaultDepth)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid depth"})
		return
	}
	ob, err := s.Eng.Depth(c.Request.Context(), in, depth)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.GetOrderbookResponse{
		Instrument: string(ob.Instrument),
		Bids:       convertOrders(ob.Bids),
		Asks:       convertOrders(ob.Asks),
		Timestamp:  ob.Timestamp,
	})
}

func (s *HTTPServer) getHistory(c *gin.Context) {
	in, err := domain.ParseInstrument(c.Query("instrument"))
	if err != nil {
		writeError(c, err)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultDepth)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	orders, err := s.Eng.History(c.Request.Context(), in, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.GetHistoryResponse{
		Instrument: string(in),
		Orders:     convertOrders(orders),
	})
}

func (s *HTTPServer) getInstruments(c *gin.Context) {
	res := dto.InstrumentsResponse{}
	for _, in := range s.Eng.Instruments() {
		res.Instruments = append(res.Instruments, dto.Instrument{Symbol: string(in), Scale: in.Scale()})
	}
	c.JSON(http.StatusOK, res)
}

// quoteStream sends the current quote of one instrument, then every change,
// until the client goes away.
func (s *HTTPServer) quoteStream(c *gin.Context) {
	in, err := domain.ParseInstrument(c.Query("instrument"))
	if err != nil {
		writeError(c, err)
		return
	}
	// subscribe before reading the current quote so no change in between is lost
	sub := s.quotes.Subscribe(in, 32)
	defer s.quotes.Unsubscribe(sub)

	q, err := s.Eng.GetQuote(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(convertQuote(q)); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case q, ok := <-sub.ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(convertQuote(q)); err != nil {
				return
			}
		}
	}
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func convertSubmit(o domain.Order, message string) dto.SubmitOrderResponse {
	return dto.SubmitOrderResponse{
		OrderID:          o.ID,
		Status:           string(o.Status()),
		MatchedVolume:    o.Filled,
		MeanMatchedPrice: o.MeanMatchedPrice(),
		Message:          message,
	}
}

func convertOrder(o domain.Order) dto.Order {
	res := dto.Order{
		OrderID:           o.ID,
		CustomerID:        o.CustomerID,
		Instrument:        string(o.Instrument),
		Side:              string(o.Side),
		Type:              string(o.Type),
		LimitPrice:        o.LimitPrice,
		LimitPriceDisplay: o.Instrument.FormatPrice(o.LimitPrice),
		Volume:            o.TotalVolume(),
		MatchedVolume:     o.Filled,
		MeanMatchedPrice:  o.MeanMatchedPrice(),
		Status:            string(o.Status()),
	}
	if o.Finished() {
		t := o.FinishedAt
		res.FinishedAt = &t
	}
	return res
}

func convertOrders(orders []domain.Order) []dto.Order {
	res := make([]dto.Order, len(orders))
	for i, o := range orders {
		res[i] = convertOrder(o)
	}
	return res
}

func convertQuote(q domain.Quote) dto.QuoteResponse {
	res := dto.QuoteResponse{Instrument: string(q.Instrument), Bid: q.Bid, Ask: q.Ask}
	if q.Bid != nil {
		d := q.Instrument.FormatPrice(*q.Bid)
		res.BidDisplay = &d
	}
	if q.Ask != nil {
		d := q.Instrument.FormatPrice(*q.Ask)
		res.AskDisplay = &d
	}
	return res
}

// ValidateOrder turns a wire request into a domain request, rejecting
// anything the engine would refuse.
func ValidateOrder(req *dto.SubmitOrderRequest) (domain.SubmitRequest, error) {
	in, err := domain.ParseInstrument(req.Instrument)
	if err != nil {
		return domain.SubmitRequest{}, err
	}
	side, err := domain.ParseSide(req.Side)
	if err != nil {
		return domain.SubmitRequest{}, err
	}
	typ, err := domain.ParseOrderType(req.Type)
	if err != nil {
		return domain.SubmitRequest{}, err
	}
	if req.Volume <= 0 {
		return domain.SubmitRequest{}, fmt.Errorf("%w: volume must be > 0", domain.ErrInvalidRequest)
	}
	if typ == domain.Limit && req.Price <= 0 {
		return domain.SubmitRequest{}, fmt.Errorf("%w: price must be > 0 for LIMIT orders", domain.ErrInvalidRequest)
	}
	sr := domain.SubmitRequest{
		CustomerID: req.CustomerID,
		Instrument: in,
		Side:       side,
		Type:       typ,
		LimitPrice: req.Price,
		Volume:     uint64(req.Volume),
	}
	return sr, sr.Validate()
}
