package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// productEntry holds committed product state and the exclusive lock of the product
type productEntry struct {
	product domain.Product // guarded by MemoryStore.mu
	lock    *semaphore.Weighted
}

// MemoryStore implements Backend with in-memory storage
type MemoryStore struct {
	mu        sync.RWMutex
	products  map[int64]*productEntry
	sessions  map[string]domain.Session
	ledger    []domain.TransactionRecord
	bySession map[string][]int // sessionID -> ledger indices
	nextID    int64

	now func() time.Time
}

// NewMemoryStore creates a new in-memory storefront store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:  make(map[int64]*productEntry),
		sessions:  make(map[string]domain.Session),
		bySession: make(map[string][]int),
		now:       time.Now,
	}
}

// CreateProduct adds a product to the catalog, assigning an id when none is set
func (s *MemoryStore) CreateProduct(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == 0 {
		s.nextID++
		for s.products[s.nextID] != nil {
			s.nextID++
		}
		product.ID = s.nextID
	} else if _, exists := s.products[product.ID]; exists {
		return ErrProductExists
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = s.now().UTC()
	}

	s.products[product.ID] = &productEntry{
		product: *product,
		lock:    semaphore.NewWeighted(1),
	}
	return nil
}

// GetProduct returns the committed state of a product
func (s *MemoryStore) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.products[id]
	if !exists {
		return nil, &ProductNotFoundError{ProductID: id}
	}
	p := entry.product
	return &p, nil
}

// ListProducts returns all products ordered by name
func (s *MemoryStore) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.products))
	for _, entry := range s.products {
		result = append(result, entry.product)
	}
	slices.SortFunc(result, func(a, b domain.Product) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}

// SetInventory overwrites the committed inventory of a product (used for initialization)
func (s *MemoryStore) SetInventory(productID int64, count int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.products[productID]
	if !exists {
		return &ProductNotFoundError{ProductID: productID}
	}
	entry.product.InventoryCount = count
	return nil
}

func (s *MemoryStore) CreateSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.SessionID]; exists {
		return ErrSessionExists
	}
	s.sessions[session.SessionID] = *session
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, &SessionNotFoundError{SessionID: sessionID}
	}
	return &session, nil
}

// ListBySession returns committed records of the session in commit order
func (s *MemoryStore) ListBySession(_ context.Context, sessionID string) ([]domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	indices := s.bySession[sessionID]
	result := make([]domain.TransactionRecord, 0, len(indices))
	for _, i := range indices {
		result = append(result, s.ledger[i])
	}
	return result, nil
}

// WithinTx runs fn in a unit whose effects are buffered until commit
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memoryTx{
		store:   s,
		held:    make(map[int64]*productEntry),
		pending: make(map[int64]int32),
		absent:  make(map[int64]bool),
	}
	// Locks are released on every exit path, panics included.
	// Nothing reaches shared state before commit, so releasing is the whole rollback.
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

type memoryTx struct {
	store   *MemoryStore
	held    map[int64]*productEntry
	pending map[int64]int32 // productID -> quantity decremented by this unit
	absent  map[int64]bool  // missing when LockProducts ran; never locked later
	records []domain.TransactionRecord
}

func (t *memoryTx) LockProducts(ctx context.Context, ids []int64) error {
	for _, id := range SortedUnique(ids) {
		entry := t.store.entry(id)
		if entry == nil {
			// reported by GetProduct when the item is reached
			t.absent[id] = true
			continue
		}
		if err := t.acquire(ctx, id, entry); err != nil {
			return err
		}
	}
	return nil
}

func (t *memoryTx) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	entry, err := t.lockEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	t.store.mu.RLock()
	p := entry.product
	t.store.mu.RUnlock()

	p.InventoryCount -= t.pending[id]
	return &p, nil
}

func (t *memoryTx) DecrementIfSufficient(ctx context.Context, id int64, quantity int32) error {
	entry, err := t.lockEntry(ctx, id)
	if err != nil {
		return err
	}

	t.store.mu.RLock()
	available := entry.product.InventoryCount - t.pending[id]
	t.store.mu.RUnlock()

	if available < quantity {
		return &InsufficientInventoryError{ProductID: id, Requested: quantity, Available: available}
	}
	t.pending[id] += quantity
	return nil
}

func (t *memoryTx) Append(ctx context.Context, record *domain.TransactionRecord) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	record.ID = uuid.New()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = t.store.now().UTC()
	}

	stored := *record
	stored.Items = slices.Clone(record.Items)
	stored.PaymentDetails = slices.Clone(record.PaymentDetails)
	t.records = append(t.records, stored)
	return record.ID, nil
}

// lockEntry returns the product entry, acquiring its lock if the unit does not hold it yet
func (t *memoryTx) lockEntry(ctx context.Context, id int64) (*productEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if entry, ok := t.held[id]; ok {
		return entry, nil
	}
	// a product created after LockProducts would be locked out of order
	if t.absent[id] {
		return nil, &ProductNotFoundError{ProductID: id}
	}

	entry := t.store.entry(id)
	if entry == nil {
		return nil, &ProductNotFoundError{ProductID: id}
	}
	if err := t.acquire(ctx, id, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (t *memoryTx) acquire(ctx context.Context, id int64, entry *productEntry) error {
	if _, ok := t.held[id]; ok {
		return nil
	}
	if err := entry.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	t.held[id] = entry
	return nil
}

// commit publishes buffered decrements and records in one step
func (t *memoryTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, qty := range t.pending {
		t.held[id].product.InventoryCount -= qty
	}
	for _, record := range t.records {
		s.ledger = append(s.ledger, record)
		s.bySession[record.SessionID] = append(s.bySession[record.SessionID], len(s.ledger)-1)
	}
}

func (t *memoryTx) release() {
	for id, entry := range t.held {
		entry.lock.Release(1)
		delete(t.held, id)
	}
	t.pending = nil
	t.absent = nil
	t.records = nil
}

func (s *MemoryStore) entry(id int64) *productEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products[id]
}
