package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client calls the OrderMatcher service over a plaintext connection.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient connects to addr. Extra options are applied after the defaults.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	defaults := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}
	conn, err := grpc.NewClient(addr, append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResponse, error) {
	out := new(SubmitOrderResponse)
	if err := c.conn.Invoke(ctx, methodSubmitOrder, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RetrieveOrder(ctx context.Context, req *OrderReference) (*RetrieveOrderResponse, error) {
	out := new(RetrieveOrderResponse)
	if err := c.conn.Invoke(ctx, methodRetrieveOrder, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CancelOrder(ctx context.Context, req *OrderReference) (*CancelOrderResponse, error) {
	out := new(CancelOrderResponse)
	if err := c.conn.Invoke(ctx, methodCancelOrder, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetQuote(ctx context.Context, req *InstrumentReference) (*Quote, error) {
	out := new(Quote)
	if err := c.conn.Invoke(ctx, methodGetQuote, req, out); err != nil {
		return nil, err
	}
	return out, nil
}
