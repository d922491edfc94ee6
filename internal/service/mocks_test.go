package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
	"github.com/google/uuid"
)

// faultyRunner wraps a real runner and breaks the ledger append
type faultyRunner struct {
	inner     store.TxRunner
	appendErr error
}

func (f *faultyRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return f.inner.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, faultyTx{Tx: tx, appendErr: f.appendErr})
	})
}

type faultyTx struct {
	store.Tx
	appendErr error
}

func (f faultyTx) Append(context.Context, *domain.TransactionRecord) (uuid.UUID, error) {
	return uuid.Nil, f.appendErr
}

// MockSessions implements store.SessionStore for testing
type MockSessions struct {
	Session *domain.Session
	Err     error
	Created []*domain.Session
}

func (m *MockSessions) GetSession(_ context.Context, _ string) (*domain.Session, error) {
	return m.Session, m.Err
}

func (m *MockSessions) CreateSession(_ context.Context, session *domain.Session) error {
	if m.Err != nil {
		return m.Err
	}
	m.Created = append(m.Created, session)
	return nil
}

// MockLedger implements store.LedgerReader for testing
type MockLedger struct {
	Records []domain.TransactionRecord
	Err     error
}

func (m *MockLedger) ListBySession(_ context.Context, _ string) ([]domain.TransactionRecord, error) {
	return m.Records, m.Err
}

// MockProducts implements store.ProductCatalog for testing
type MockProducts struct {
	Created   []*domain.Product
	Products  []domain.Product
	CreateErr error
}

func (m *MockProducts) CreateProduct(_ context.Context, product *domain.Product) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Created = append(m.Created, product)
	return nil
}

func (m *MockProducts) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	for _, p := range m.Products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, &store.ProductNotFoundError{ProductID: id}
}

func (m *MockProducts) ListProducts(context.Context) ([]domain.Product, error) {
	return m.Products, nil
}

type observation struct {
	outcome string
	reason  string
}

// RecorderMock collects order observations
type RecorderMock struct {
	mu           sync.Mutex
	observations []observation
}

func (r *RecorderMock) ObserveOrder(outcome, reason string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations = append(r.observations, observation{outcome, reason})
}

func (r *RecorderMock) Observations() []observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]observation(nil), r.observations...)
}

var errDiskFull = errors.New("disk full")
