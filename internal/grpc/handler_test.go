package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/service"
	"github.com/fjod/storefront/internal/store"
	pb "github.com/fjod/storefront/pkg/api"
	"github.com/fjod/storefront/pkg/logger"
)

type StorefrontServerSuite struct {
	suite.Suite
	store   *store.MemoryStore
	metrics *metrics.OrderMetrics
	server  *grpc.Server
	conn    *grpc.ClientConn
	client  pb.StorefrontServiceClient
}

func TestStorefrontServerSuite(t *testing.T) {
	suite.Run(t, new(StorefrontServerSuite))
}

func (s *StorefrontServerSuite) SetupTest() {
	log := logger.Nop()
	s.store = store.NewMemoryStore()
	s.metrics = metrics.NewOrderMetrics(prometheus.NewRegistry())

	engine := service.NewOrderEngine(service.EngineDeps{
		Tx:       s.store,
		Sessions: s.store,
		Metrics:  s.metrics,
		Logger:   log,
	}, service.DefaultOptions())
	aggregator := service.NewAggregator(s.store, s.store, log)
	catalog := service.NewCatalogService(s.store, s.store)

	lis := bufconn.Listen(1 << 20)
	s.server = grpc.NewServer(grpc.UnaryInterceptor(UnaryServerInterceptor(log, s.metrics)))
	pb.RegisterStorefrontServiceServer(s.server, NewStorefrontServer(engine, aggregator, catalog, domain.DefaultCurrencyPrecision))
	go func() { _ = s.server.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	s.Require().NoError(err)
	s.conn = conn
	s.client = pb.NewStorefrontServiceClient(conn)
}

func (s *StorefrontServerSuite) TearDownTest() {
	s.conn.Close()
	s.server.Stop()
}

func (s *StorefrontServerSuite) createSession() string {
	resp, err := s.client.CreateSession(context.Background(), &pb.CreateSessionRequest{
		UserData: json.RawMessage(`{"name":"ann"}`),
	})
	s.Require().NoError(err)
	return resp.Session.SessionID
}

func (s *StorefrontServerSuite) addProduct(name, price string, count int32) int64 {
	resp, err := s.client.AddProduct(context.Background(), &pb.AddProductRequest{
		Product: &pb.Product{Name: name, Price: price, InventoryCount: count},
	})
	s.Require().NoError(err)
	return resp.Product.ID
}

func (s *StorefrontServerSuite) TestOrderAndAnalytics() {
	ctx := context.Background()
	sessionID := s.createSession()
	p1 := s.addProduct("mug", "10.00", 5)
	p2 := s.addProduct("pen", "2.50", 2)

	resp, err := s.client.ProcessOrder(ctx, &pb.ProcessOrderRequest{
		SessionID:      sessionID,
		Items:          []*pb.OrderItem{{ProductID: p1, Quantity: 2}, {ProductID: p2, Quantity: 1}},
		PaymentDetails: []byte(`{"card":"4242"}`),
	})
	s.Require().NoError(err)
	s.Equal("22.50", resp.Total)
	s.Equal("COMPLETED", resp.Status)
	s.NotEmpty(resp.TransactionID)

	analytics, err := s.client.GetAnalytics(ctx, &pb.GetAnalyticsRequest{SessionID: sessionID})
	s.Require().NoError(err)
	s.Equal(sessionID, analytics.Session.SessionID)
	s.JSONEq(`{"name":"ann"}`, string(analytics.Session.UserData))
	s.NotEmpty(analytics.Session.ExpiresAt)
	s.Equal(int32(1), analytics.TransactionCount)
	s.Equal("22.50", analytics.TotalSpent)
	s.Require().Len(analytics.Transactions, 1)

	tx := analytics.Transactions[0]
	s.Equal(resp.TransactionID, tx.TransactionID)
	s.Equal(`{"card":"4242"}`, string(tx.PaymentDetails))
	s.Require().Len(tx.Items, 2)
	s.Equal("10", tx.Items[0].UnitPrice)

	products, err := s.client.ListProducts(ctx, &pb.ListProductsRequest{})
	s.Require().NoError(err)
	s.Require().Len(products.Products, 2)
	s.Equal(int32(3), products.Products[0].InventoryCount)
	s.Equal(int32(1), products.Products[1].InventoryCount)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Orders.WithLabelValues("COMMITTED", "")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RPCRequests.WithLabelValues("ProcessOrder", "OK")))
}

func (s *StorefrontServerSuite) TestProcessOrder_InsufficientInventory() {
	ctx := context.Background()
	sessionID := s.createSession()
	p1 := s.addProduct("mug", "10.00", 1)

	_, err := s.client.ProcessOrder(ctx, &pb.ProcessOrderRequest{
		SessionID: sessionID,
		Items:     []*pb.OrderItem{{ProductID: p1, Quantity: 2}},
	})
	s.Equal(codes.FailedPrecondition, status.Code(err))

	analytics, err := s.client.GetAnalytics(ctx, &pb.GetAnalyticsRequest{SessionID: sessionID})
	s.Require().NoError(err)
	s.Equal(int32(0), analytics.TransactionCount)
	s.Equal("0.00", analytics.TotalSpent)
	s.Empty(analytics.Transactions)
}

func (s *StorefrontServerSuite) TestProcessOrder_NotFound() {
	ctx := context.Background()
	p1 := s.addProduct("mug", "10.00", 1)

	_, err := s.client.ProcessOrder(ctx, &pb.ProcessOrderRequest{
		SessionID: "missing",
		Items:     []*pb.OrderItem{{ProductID: p1, Quantity: 1}},
	})
	s.Equal(codes.NotFound, status.Code(err))

	sessionID := s.createSession()
	_, err = s.client.ProcessOrder(ctx, &pb.ProcessOrderRequest{
		SessionID: sessionID,
		Items:     []*pb.OrderItem{{ProductID: 999, Quantity: 1}},
	})
	s.Equal(codes.NotFound, status.Code(err))
}

func (s *StorefrontServerSuite) TestValidation() {
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"missing session", func() error {
			_, err := s.client.ProcessOrder(ctx, &pb.ProcessOrderRequest{Items: []*pb.OrderItem{{ProductID: 1, Quantity: 1}}})
			return err
		}},
		{"no items", func() error {
			_, err := s.client.ProcessOrder(ctx, &pb.ProcessOrderRequest{SessionID: "s"})
			return err
		}},
		{"zero quantity", func() error {
			_, err := s.client.ProcessOrder(ctx, &pb.ProcessOrderRequest{SessionID: "s", Items: []*pb.OrderItem{{ProductID: 1}}})
			return err
		}},
		{"analytics without session", func() error {
			_, err := s.client.GetAnalytics(ctx, &pb.GetAnalyticsRequest{})
			return err
		}},
		{"negative price", func() error {
			_, err := s.client.AddProduct(ctx, &pb.AddProductRequest{Product: &pb.Product{Name: "x", Price: "-1"}})
			return err
		}},
		{"unparsable price", func() error {
			_, err := s.client.AddProduct(ctx, &pb.AddProductRequest{Product: &pb.Product{Name: "x", Price: "ten"}})
			return err
		}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.Equal(codes.InvalidArgument, status.Code(tc.call()))
		})
	}
}

func (s *StorefrontServerSuite) TestAddProduct_Duplicate() {
	ctx := context.Background()
	_, err := s.client.AddProduct(ctx, &pb.AddProductRequest{Product: &pb.Product{ID: 5, Name: "x", Price: "1"}})
	s.Require().NoError(err)

	_, err = s.client.AddProduct(ctx, &pb.AddProductRequest{Product: &pb.Product{ID: 5, Name: "y", Price: "1"}})
	s.Equal(codes.AlreadyExists, status.Code(err))
}

func TestMapServiceError(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{service.ErrInvalidOrder, codes.InvalidArgument},
		{service.ErrInvalidArgument, codes.InvalidArgument},
		{&store.ProductNotFoundError{ProductID: 1}, codes.NotFound},
		{&store.SessionNotFoundError{SessionID: "s"}, codes.NotFound},
		{&store.InsufficientInventoryError{ProductID: 1, Requested: 2, Available: 1}, codes.FailedPrecondition},
		{store.ErrProductExists, codes.AlreadyExists},
		{store.ErrSessionExists, codes.AlreadyExists},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{store.NewStorageError("commit", errors.New("disk full")), codes.Unavailable},
		{errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.code, status.Code(mapServiceError(tc.err)))
		})
	}
}

func TestMapServiceError_StorageDetailsAreHidden(t *testing.T) {
	err := mapServiceError(store.NewStorageError("commit", errors.New("password=secret")))
	require.Error(t, err)
	assert.NotContains(t, status.Convert(err).Message(), "secret")
}
