package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
	"github.com/google/uuid"
)

// CatalogService covers catalog administration and session creation
type CatalogService struct {
	products store.ProductCatalog
	sessions store.SessionStore
	now      func() time.Time
}

func NewCatalogService(products store.ProductCatalog, sessions store.SessionStore) *CatalogService {
	return &CatalogService{products: products, sessions: sessions, now: time.Now}
}

func (s *CatalogService) AddProduct(ctx context.Context, product *domain.Product) error {
	if product == nil || strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}
	if !domain.FitsScale(product.Price, domain.MaxAmountScale) {
		return fmt.Errorf("%w: price must have at most %d decimal places", ErrInvalidArgument, domain.MaxAmountScale)
	}
	if product.InventoryCount < 0 {
		return fmt.Errorf("%w: inventory_count must not be negative", ErrInvalidArgument)
	}

	if product.CreatedAt.IsZero() {
		product.CreatedAt = s.now().UTC()
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return classify("create product", err)
	}
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, classify("list products", err)
	}
	return products, nil
}

// CreateSession opens a storefront session valid for domain.SessionTTL
func (s *CatalogService) CreateSession(ctx context.Context, userData, personalInfo json.RawMessage) (*domain.Session, error) {
	for name, payload := range map[string]json.RawMessage{"user_data": userData, "personal_info": personalInfo} {
		if len(payload) > 0 && !json.Valid(payload) {
			return nil, fmt.Errorf("%w: %s must be valid JSON", ErrInvalidArgument, name)
		}
	}

	now := s.now().UTC()
	session := &domain.Session{
		SessionID:    newSessionID(now),
		UserData:     userData,
		PersonalInfo: personalInfo,
		ExpiresAt:    now.Add(domain.SessionTTL),
		CreatedAt:    now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, classify("create session", err)
	}
	return session, nil
}

func newSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), suffix)
}
