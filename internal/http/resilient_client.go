package http

import (
	"context"

	"google.golang.org/grpc"

	pb "github.com/fjod/storefront/pkg/api"
	"github.com/fjod/storefront/pkg/circuitbreaker"
)

// ResilientClient routes every storefront call through a circuit breaker
type ResilientClient struct {
	next    pb.StorefrontServiceClient
	breaker *circuitbreaker.Breaker
}

var _ pb.StorefrontServiceClient = (*ResilientClient)(nil)

func NewResilientClient(next pb.StorefrontServiceClient, breaker *circuitbreaker.Breaker) *ResilientClient {
	return &ResilientClient{next: next, breaker: breaker}
}

func (c *ResilientClient) ProcessOrder(ctx context.Context, in *pb.ProcessOrderRequest, opts ...grpc.CallOption) (*pb.ProcessOrderResponse, error) {
	return circuitbreaker.Execute(c.breaker, func() (*pb.ProcessOrderResponse, error) {
		return c.next.ProcessOrder(ctx, in, opts...)
	})
}

func (c *ResilientClient) GetAnalytics(ctx context.Context, in *pb.GetAnalyticsRequest, opts ...grpc.CallOption) (*pb.GetAnalyticsResponse, error) {
	return circuitbreaker.Execute(c.breaker, func() (*pb.GetAnalyticsResponse, error) {
		return c.next.GetAnalytics(ctx, in, opts...)
	})
}

func (c *ResilientClient) AddProduct(ctx context.Context, in *pb.AddProductRequest, opts ...grpc.CallOption) (*pb.AddProductResponse, error) {
	return circuitbreaker.Execute(c.breaker, func() (*pb.AddProductResponse, error) {
		return c.next.AddProduct(ctx, in, opts...)
	})
}

func (c *ResilientClient) ListProducts(ctx context.Context, in *pb.ListProductsRequest, opts ...grpc.CallOption) (*pb.ListProductsResponse, error) {
	return circuitbreaker.Execute(c.breaker, func() (*pb.ListProductsResponse, error) {
		return c.next.ListProducts(ctx, in, opts...)
	})
}

func (c *ResilientClient) CreateSession(ctx context.Context, in *pb.CreateSessionRequest, opts ...grpc.CallOption) (*pb.CreateSessionResponse, error) {
	return circuitbreaker.Execute(c.breaker, func() (*pb.CreateSessionResponse, error) {
		return c.next.CreateSession(ctx, in, opts...)
	})
}
