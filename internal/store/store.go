package store

import (
	"context"
	"slices"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

// Catalog is the product side of an open unit of work
type Catalog interface {
	// GetProduct returns the product as seen by the current unit,
	// including decrements the unit already made
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// DecrementIfSufficient removes quantity from the product's inventory,
	// or fails with *InsufficientInventoryError leaving it untouched
	DecrementIfSufficient(ctx context.Context, id int64, quantity int32) error
}

// Ledger is the append side of the transaction ledger
type Ledger interface {
	// Append stores the record as part of the unit and returns the assigned id
	Append(ctx context.Context, record *domain.TransactionRecord) (uuid.UUID, error)
}

// Tx is a single atomic unit of work over the catalog and the ledger
type Tx interface {
	Catalog
	Ledger

	// LockProducts takes exclusive ownership of the given products for the rest of the unit.
	// Locks are acquired in ascending id order.
	LockProducts(ctx context.Context, ids []int64) error
}

// TxRunner opens atomic units of work
type TxRunner interface {
	// WithinTx runs fn inside a unit that is committed only if fn returns nil.
	// Any other exit, including a panic or an expired context, rolls the unit back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

type SessionStore interface {
	SessionReader
	CreateSession(ctx context.Context, session *domain.Session) error
}

type LedgerReader interface {
	// ListBySession returns committed records of the session, oldest first
	ListBySession(ctx context.Context, sessionID string) ([]domain.TransactionRecord, error)
}

// ProductCatalog is the committed, non-transactional view of the catalog
type ProductCatalog interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Backend is a complete storage backend for the storefront
type Backend interface {
	TxRunner
	LedgerReader
	SessionStore
	ProductCatalog
	Close() error
}

// SortedUnique returns the distinct ids in ascending order
func SortedUnique(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
