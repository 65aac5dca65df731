package grpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/olyamironova/order-matcher/internal/core"
	"github.com/olyamironova/order-matcher/internal/domain"
)

type GRPCServer struct {
	Eng    *core.Engine
	logger *zap.Logger
}

var _ OrderMatcherServer = (*GRPCServer)(nil)

func NewGRPCServer(eng *core.Engine, logger *zap.Logger) *GRPCServer {
	return &GRPCServer{Eng: eng, logger: logger}
}

func (s *GRPCServer) SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResponse, error) {
	sr, err := ValidateOrder(req)
	if err != nil {
		return nil, err
	}
	o, err := s.Eng.SubmitOrder(ctx, sr)
	if err != nil {
		return nil, toStatus(err, "submit failed")
	}
	return &SubmitOrderResponse{
		OrderID:          o.ID,
		OrderStatus:      string(o.Status()),
		MeanMatchedPrice: o.MeanMatchedPrice(),
		MatchedVolume:    o.Filled,
	}, nil
}

func (s *GRPCServer) RetrieveOrder(ctx context.Context, req *OrderReference) (*RetrieveOrderResponse, error) {
	o, err := s.Eng.RetrieveOrder(ctx, req.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		return &RetrieveOrderResponse{}, nil
	}
	if err != nil {
		return nil, toStatus(err, "retrieve failed")
	}
	return &RetrieveOrderResponse{Order: convertOrderToPb(o)}, nil
}

func (s *GRPCServer) CancelOrder(ctx context.Context, req *OrderReference) (*CancelOrderResponse, error) {
	st, err := s.Eng.CancelOrder(ctx, req.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		return &CancelOrderResponse{OrderWasFound: false}, nil
	}
	if err != nil {
		return nil, toStatus(err, "cancel failed")
	}
	return &CancelOrderResponse{
		OrderWasFound:    true,
		FinalOrderStatus: string(st),
	}, nil
}

func (s *GRPCServer) GetQuote(ctx context.Context, req *InstrumentReference) (*Quote, error) {
	in, err := domain.ParseInstrument(req.Instrument)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	q, err := s.Eng.GetQuote(ctx, in)
	if err != nil {
		return nil, toStatus(err, "get quote failed")
	}
	res := &Quote{Instrument: string(q.Instrument)}
	if q.Bid != nil {
		res.Bid = &Int64Value{wrapperspb.Int64(*q.Bid)}
	}
	if q.Ask != nil {
		res.Ask = &Int64Value{wrapperspb.Int64(*q.Ask)}
	}
	return res, nil
}

// UnaryLogger logs every call at debug level and failures at warn.
func (s *GRPCServer) UnaryLogger() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			s.logger.Warn("grpc call failed", zap.String("method", info.FullMethod), zap.Error(err))
		} else {
			s.logger.Debug("grpc call", zap.String("method", info.FullMethod))
		}
		return resp, err
	}
}

func toStatus(err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return status.Errorf(codes.InvalidArgument, "%s: %v", msg, err)
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s: %v", msg, err)
	}
	return status.Errorf(codes.Internal, "%s: %v", msg, err)
}

func convertOrderToPb(o domain.Order) *Order {
	res := &Order{
		OrderID:          o.ID,
		CustomerID:       o.CustomerID,
		Instrument:       string(o.Instrument),
		OrderDirection:   string(o.Side),
		OrderType:        string(o.Type),
		OrderStatus:      string(o.Status()),
		LimitPrice:       o.LimitPrice,
		Volume:           o.TotalVolume(),
		MeanMatchedPrice: o.MeanMatchedPrice(),
		MatchedVolume:    o.Filled,
	}
	if o.Finished() {
		res.FinishTime = &Timestamp{timestamppb.New(o.FinishedAt)}
	}
	return res
}

func ValidateOrder(req *SubmitOrderRequest) (domain.SubmitRequest, error) {
	in, err := domain.ParseInstrument(req.Instrument)
	if err != nil {
		return domain.SubmitRequest{}, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	if req.OrderDirection != "BUY" && req.OrderDirection != "SELL" {
		return domain.SubmitRequest{}, status.Errorf(codes.InvalidArgument, "invalid order direction: %s", req.OrderDirection)
	}
	if req.OrderType != "LIMIT" && req.OrderType != "MARKET" {
		return domain.SubmitRequest{}, status.Errorf(codes.InvalidArgument, "invalid order type: %s", req.OrderType)
	}
	if req.Volume <= 0 {
		return domain.SubmitRequest{}, status.Errorf(codes.InvalidArgument, "volume must be > 0")
	}
	if req.OrderType == "LIMIT" && req.LimitPrice <= 0 {
		return domain.SubmitRequest{}, status.Errorf(codes.InvalidArgument, "limit price must be > 0 for LIMIT orders")
	}
	return domain.SubmitRequest{
		CustomerID: req.CustomerID,
		Instrument: in,
		Side:       domain.Side(req.OrderDirection),
		Type:       domain.OrderType(req.OrderType),
		LimitPrice: req.LimitPrice,
		Volume:     uint64(req.Volume),
	}, nil
}
