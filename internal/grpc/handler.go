package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
	"github.com/fjod/storefront/internal/store"
	pb "github.com/fjod/storefront/pkg/api"
)

// StorefrontServer implements the gRPC storefront service
type StorefrontServer struct {
	pb.UnimplementedStorefrontServiceServer
	orders    service.OrderProcessor
	analytics service.AnalyticsReader
	catalog   service.CatalogManager
	precision int32
}

// NewStorefrontServer creates a new gRPC handler; precision is the number of decimals amounts are rendered with
func NewStorefrontServer(orders service.OrderProcessor, analytics service.AnalyticsReader, catalog service.CatalogManager, precision int32) *StorefrontServer {
	return &StorefrontServer{
		orders:    orders,
		analytics: analytics,
		catalog:   catalog,
		precision: precision,
	}
}

// ProcessOrder places an order atomically
func (s *StorefrontServer) ProcessOrder(ctx context.Context, req *pb.ProcessOrderRequest) (*pb.ProcessOrderResponse, error) {
	if req.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	if len(req.Items) == 0 {
		return nil, status.Error(codes.InvalidArgument, "at least one item is required")
	}

	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		if item == nil {
			return nil, status.Error(codes.InvalidArgument, "item must not be empty")
		}
		if item.ProductID <= 0 {
			return nil, status.Error(codes.InvalidArgument, "product_id must be greater than 0")
		}
		if item.Quantity <= 0 {
			return nil, status.Error(codes.InvalidArgument, "quantity must be greater than 0")
		}
		items[i] = domain.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	result, err := s.orders.ProcessOrder(ctx, &service.OrderRequest{
		SessionID:      req.SessionID,
		Items:          items,
		PaymentDetails: req.PaymentDetails,
	})
	if err != nil {
		return nil, mapServiceError(err)
	}

	return &pb.ProcessOrderResponse{
		TransactionID: result.TransactionID.String(),
		Total:         domain.FormatAmount(result.Total, s.precision),
		Status:        result.Status.String(),
	}, nil
}

// GetAnalytics returns the spend history of a session
func (s *StorefrontServer) GetAnalytics(ctx context.Context, req *pb.GetAnalyticsRequest) (*pb.GetAnalyticsResponse, error) {
	if req.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}

	analytics, err := s.analytics.GetAnalytics(ctx, req.SessionID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	transactions := make([]*pb.Transaction, len(analytics.Transactions))
	for i := range analytics.Transactions {
		transactions[i] = s.toProtoTransaction(&analytics.Transactions[i])
	}

	return &pb.GetAnalyticsResponse{
		Session: &pb.Session{
			SessionID:    analytics.Session.SessionID,
			UserData:     analytics.Session.UserData,
			PersonalInfo: analytics.Session.PersonalInfo,
			ExpiresAt:    formatTime(analytics.Session.ExpiresAt),
		},
		Transactions:     transactions,
		TotalSpent:       domain.FormatAmount(analytics.TotalSpent, s.precision),
		TransactionCount: int32(analytics.TransactionCount),
	}, nil
}

// AddProduct creates a catalog entry
func (s *StorefrontServer) AddProduct(ctx context.Context, req *pb.AddProductRequest) (*pb.AddProductResponse, error) {
	if req.Product == nil {
		return nil, status.Error(codes.InvalidArgument, "product is required")
	}
	if req.Product.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	price, err := domain.ParseAmount(req.Product.Price)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid price %q", req.Product.Price)
	}

	product := &domain.Product{
		ID:             req.Product.ID,
		Name:           req.Product.Name,
		Description:    req.Product.Description,
		Price:          price,
		InventoryCount: req.Product.InventoryCount,
	}
	if err := s.catalog.AddProduct(ctx, product); err != nil {
		return nil, mapServiceError(err)
	}

	return &pb.AddProductResponse{Product: toProtoProduct(product)}, nil
}

func (s *StorefrontServer) ListProducts(ctx context.Context, _ *pb.ListProductsRequest) (*pb.ListProductsResponse, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := make([]*pb.Product, len(products))
	for i := range products {
		out[i] = toProtoProduct(&products[i])
	}
	return &pb.ListProductsResponse{Products: out}, nil
}

func (s *StorefrontServer) CreateSession(ctx context.Context, req *pb.CreateSessionRequest) (*pb.CreateSessionResponse, error) {
	session, err := s.catalog.CreateSession(ctx, req.UserData, req.PersonalInfo)
	if err != nil {
		return nil, mapServiceError(err)
	}

	return &pb.CreateSessionResponse{Session: &pb.Session{
		SessionID:    session.SessionID,
		UserData:     session.UserData,
		PersonalInfo: session.PersonalInfo,
		ExpiresAt:    formatTime(session.ExpiresAt),
	}}, nil
}

func (s *StorefrontServer) toProtoTransaction(rec *domain.TransactionRecord) *pb.Transaction {
	lines := make([]*pb.OrderLine, len(rec.Items))
	for i, line := range rec.Items {
		lines[i] = &pb.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.String(),
		}
	}
	return &pb.Transaction{
		TransactionID:  rec.ID.String(),
		SessionID:      rec.SessionID,
		Items:          lines,
		Total:          domain.FormatAmount(rec.Total, s.precision),
		PaymentDetails: rec.PaymentDetails,
		Status:         rec.Status.String(),
		CreatedAt:      formatTime(rec.CreatedAt),
	}
}

func toProtoProduct(p *domain.Product) *pb.Product {
	return &pb.Product{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price.String(),
		InventoryCount: p.InventoryCount,
		CreatedAt:      formatTime(p.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// mapServiceError converts service and store errors to gRPC status codes
func mapServiceError(err error) error {
	switch {
	case service.IsInvalidInput(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, store.ErrProductNotFound), errors.Is(err, store.ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, store.ErrInsufficientInventory):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, store.ErrProductExists), errors.Is(err, store.ErrSessionExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "order timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, store.ErrStorage):
		return status.Error(codes.Unavailable, "storage unavailable")
	default:
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}
