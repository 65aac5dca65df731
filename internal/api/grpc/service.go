package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "ordermatcher.OrderMatcher"

const (
	methodSubmitOrder   = "/" + serviceName + "/SubmitOrder"
	methodRetrieveOrder = "/" + serviceName + "/RetrieveOrder"
	methodCancelOrder   = "/" + serviceName + "/CancelOrder"
	methodGetQuote      = "/" + serviceName + "/GetQuote"
)

type OrderMatcherServer interface {
	SubmitOrder(context.Context, *SubmitOrderRequest) (*SubmitOrderResponse, error)
	RetrieveOrder(context.Context, *OrderReference) (*RetrieveOrderResponse, error)
	CancelOrder(context.Context, *OrderReference) (*CancelOrderResponse, error)
	GetQuote(context.Context, *InstrumentReference) (*Quote, error)
}

func RegisterOrderMatcherServer(s grpc.ServiceRegistrar, srv OrderMatcherServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*OrderMatcherServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitOrder",
			Handler:    unaryHandler(methodSubmitOrder, OrderMatcherServer.SubmitOrder),
		},
		{
			MethodName: "RetrieveOrder",
			Handler:    unaryHandler(methodRetrieveOrder, OrderMatcherServer.RetrieveOrder),
		},
		{
			MethodName: "CancelOrder",
			Handler:    unaryHandler(methodCancelOrder, OrderMatcherServer.CancelOrder),
		},
		{
			MethodName: "GetQuote",
			Handler:    unaryHandler(methodGetQuote, OrderMatcherServer.GetQuote),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ordermatcher.proto",
}

// unaryHandler adapts one server method to grpc's handler signature, the way
// protoc-gen-go-grpc output does for each method.
func unaryHandler[Req, Resp any](fullMethod string, call func(OrderMatcherServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderMatcherServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderMatcherServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
