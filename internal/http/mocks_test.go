package http

import (
	"context"
	"sync"

	"google.golang.org/grpc"

	pb "github.com/fjod/storefront/pkg/api"
)

type ClientMock struct {
	mu sync.Mutex

	order     *pb.ProcessOrderResponse
	analytics *pb.GetAnalyticsResponse
	product   *pb.AddProductResponse
	products  *pb.ListProductsResponse
	session   *pb.CreateSessionResponse
	err       error

	calls        int
	lastOrder    *pb.ProcessOrderRequest
	lastProduct  *pb.AddProductRequest
	lastSession  *pb.CreateSessionRequest
	lastSessionQ string
}

func (c *ClientMock) record() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *ClientMock) ProcessOrder(_ context.Context, in *pb.ProcessOrderRequest, _ ...grpc.CallOption) (*pb.ProcessOrderResponse, error) {
	c.record()
	c.lastOrder = in
	if c.err != nil {
		return nil, c.err
	}
	return c.order, nil
}

func (c *ClientMock) GetAnalytics(_ context.Context, in *pb.GetAnalyticsRequest, _ ...grpc.CallOption) (*pb.GetAnalyticsResponse, error) {
	c.record()
	c.lastSessionQ = in.SessionID
	if c.err != nil {
		return nil, c.err
	}
	return c.analytics, nil
}

func (c *ClientMock) AddProduct(_ context.Context, in *pb.AddProductRequest, _ ...grpc.CallOption) (*pb.AddProductResponse, error) {
	c.record()
	c.lastProduct = in
	if c.err != nil {
		return nil, c.err
	}
	return c.product, nil
}

func (c *ClientMock) ListProducts(_ context.Context, _ *pb.ListProductsRequest, _ ...grpc.CallOption) (*pb.ListProductsResponse, error) {
	c.record()
	if c.err != nil {
		return nil, c.err
	}
	return c.products, nil
}

func (c *ClientMock) CreateSession(_ context.Context, in *pb.CreateSessionRequest, _ ...grpc.CallOption) (*pb.CreateSessionResponse, error) {
	c.record()
	c.lastSession = in
	if c.err != nil {
		return nil, c.err
	}
	return c.session, nil
}
