package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type OrderRequest struct {
	SessionID      string
	Items          []domain.OrderItem
	PaymentDetails []byte // opaque, stored verbatim
}

type OrderProcessor interface {
	ProcessOrder(ctx context.Context, request *OrderRequest) (*domain.TransactionResult, error)
}

type AnalyticsReader interface {
	GetAnalytics(ctx context.Context, sessionID string) (*domain.Analytics, error)
}

type CatalogManager interface {
	AddProduct(ctx context.Context, product *domain.Product) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateSession(ctx context.Context, userData, personalInfo json.RawMessage) (*domain.Session, error)
}

// Recorder receives one observation per finished order
type Recorder interface {
	ObserveOrder(outcome, reason string, elapsed time.Duration)
}

type Options struct {
	// Timeout bounds a whole order; zero means only the caller's deadline applies
	Timeout time.Duration
	// Precision is the number of decimal places the order total is rounded to
	Precision int32
	// ValidateSession rejects orders whose session does not exist
	ValidateSession bool
}

func DefaultOptions() Options {
	return Options{
		Timeout:         5 * time.Second,
		Precision:       domain.DefaultCurrencyPrecision,
		ValidateSession: true,
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveOrder(string, string, time.Duration) {}
