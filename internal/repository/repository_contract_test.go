package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
)

// runRepositoryTests exercises a migrated, empty repository; newRepo must return a fresh database per call
func runRepositoryTests(t *testing.T, newRepo func(t *testing.T) *Repository) {
	t.Run("CreateAndListProducts", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		b := &domain.Product{Name: "banana", Price: decimal.RequireFromString("0.25"), InventoryCount: 5}
		a := &domain.Product{Name: "apple", Description: "red", Price: decimal.RequireFromString("1.10"), InventoryCount: 3}
		require.NoError(t, repo.CreateProduct(ctx, b))
		require.NoError(t, repo.CreateProduct(ctx, a))
		assert.NotZero(t, b.ID)
		assert.NotEqual(t, a.ID, b.ID)

		products, err := repo.ListProducts(ctx)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "apple", products[0].Name)
		assert.Equal(t, "red", products[0].Description)
		assert.Equal(t, "1.10", products[0].Price.StringFixed(2))
		assert.Equal(t, int32(3), products[0].InventoryCount)
	})

	t.Run("CreateProductWithExplicitID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.CreateProduct(ctx, &domain.Product{ID: 7, Name: "x", Price: decimal.NewFromInt(1)}))
		err := repo.CreateProduct(ctx, &domain.Product{ID: 7, Name: "y", Price: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, store.ErrProductExists)

		next := &domain.Product{Name: "z", Price: decimal.NewFromInt(1)}
		require.NoError(t, repo.CreateProduct(ctx, next))
		assert.Greater(t, next.ID, int64(7))
	})

	t.Run("GetProductNotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetProduct(context.Background(), 404)

		var nf *store.ProductNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, int64(404), nf.ProductID)
	})

	t.Run("Sessions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		expires := time.Now().Add(domain.SessionTTL).UTC()

		session := &domain.Session{
			SessionID:    "session_1",
			UserData:     []byte(`{"name":"ann"}`),
			PersonalInfo: []byte(`{"email":"a@b.c"}`),
			ExpiresAt:    expires,
		}
		require.NoError(t, repo.CreateSession(ctx, session))
		assert.ErrorIs(t, repo.CreateSession(ctx, session), store.ErrSessionExists)

		got, err := repo.GetSession(ctx, "session_1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"ann"}`, string(got.UserData))
		assert.JSONEq(t, `{"email":"a@b.c"}`, string(got.PersonalInfo))
		assert.WithinDuration(t, expires, got.ExpiresAt, time.Millisecond)

		bare := &domain.Session{SessionID: "session_2", ExpiresAt: expires}
		require.NoError(t, repo.CreateSession(ctx, bare))
		got, err = repo.GetSession(ctx, "session_2")
		require.NoError(t, err)
		assert.Nil(t, got.UserData)

		_, err = repo.GetSession(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrSessionNotFound)
	})

	t.Run("CommittedUnitIsVisible", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		product := &domain.Product{Name: "p", Price: decimal.RequireFromString("2.50"), InventoryCount: 10}
		require.NoError(t, repo.CreateProduct(ctx, product))

		var id string
		err := repo.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			require.NoError(t, tx.LockProducts(ctx, []int64{product.ID}))
			require.NoError(t, tx.DecrementIfSufficient(ctx, product.ID, 4))

			p, err := tx.GetProduct(ctx, product.ID)
			require.NoError(t, err)
			assert.Equal(t, int32(6), p.InventoryCount)

			recID, err := tx.Append(ctx, &domain.TransactionRecord{
				SessionID:      "s1",
				Items:          []domain.OrderLine{{ProductID: product.ID, Quantity: 4, UnitPrice: p.Price}},
				Total:          decimal.RequireFromString("10.00"),
				PaymentDetails: []byte(`{"card":"4242"}`),
				Status:         domain.TransactionStatusCompleted,
			})
			id = recID.String()
			return err
		})
		require.NoError(t, err)

		p, err := repo.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(6), p.InventoryCount)

		records, err := repo.ListBySession(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, records, 1)
		rec := records[0]
		assert.Equal(t, id, rec.ID.String())
		assert.Equal(t, "10.00", rec.Total.StringFixed(2))
		assert.Equal(t, domain.TransactionStatusCompleted, rec.Status)
		assert.Equal(t, `{"card":"4242"}`, string(rec.PaymentDetails))
		require.Len(t, rec.Items, 1)
		assert.Equal(t, int32(4), rec.Items[0].Quantity)
		assert.Equal(t, "2.50", rec.Items[0].UnitPrice.StringFixed(2))

		events, err := repo.GetUnprocessedEvents(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, EventTransactionCommitted, events[0].EventType)
		assert.Equal(t, "s1", events[0].AggregateID)
		assert.Contains(t, string(events[0].Payload), id)

		require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))
		events, err = repo.GetUnprocessedEvents(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("FailedUnitLeavesNoTrace", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		first := &domain.Product{Name: "a", Price: decimal.NewFromInt(1), InventoryCount: 5}
		second := &domain.Product{Name: "b", Price: decimal.NewFromInt(1), InventoryCount: 1}
		require.NoError(t, repo.CreateProduct(ctx, first))
		require.NoError(t, repo.CreateProduct(ctx, second))

		err := repo.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			require.NoError(t, tx.DecrementIfSufficient(ctx, first.ID, 5))
			_, err := tx.Append(ctx, &domain.TransactionRecord{SessionID: "s1", Total: decimal.Zero, Status: domain.TransactionStatusCompleted})
			require.NoError(t, err)
			return tx.DecrementIfSufficient(ctx, second.ID, 2)
		})

		var ie *store.InsufficientInventoryError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, store.InsufficientInventoryError{ProductID: second.ID, Requested: 2, Available: 1}, *ie)

		p, err := repo.GetProduct(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(5), p.InventoryCount)

		records, err := repo.ListBySession(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, records)

		events, err := repo.GetUnprocessedEvents(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("DecrementMissingProduct", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			return tx.DecrementIfSufficient(ctx, 99, 1)
		})
		assert.ErrorIs(t, err, store.ErrProductNotFound)
	})

	t.Run("LedgerIsOrderedByCreation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

		for i, offset := range []time.Duration{2 * time.Second, 0, time.Second} {
			err := repo.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
				_, err := tx.Append(ctx, &domain.TransactionRecord{
					SessionID: "s1",
					Total:     decimal.NewFromInt(int64(i)),
					Status:    domain.TransactionStatusCompleted,
					CreatedAt: base.Add(offset),
				})
				return err
			})
			require.NoError(t, err)
		}

		records, err := repo.ListBySession(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "1", records[0].Total.String())
		assert.Equal(t, "2", records[1].Total.String())
		assert.Equal(t, "0", records[2].Total.String())
		assert.True(t, records[0].CreatedAt.Equal(base))
	})

	t.Run("MoneyKeepsFullStoredScale", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		price := decimal.RequireFromString("0.12345678")
		total := decimal.RequireFromString("98765432.12345678")

		product := &domain.Product{Name: "bolt", Price: price, InventoryCount: 1}
		require.NoError(t, repo.CreateProduct(ctx, product))

		got, err := repo.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.True(t, price.Equal(got.Price), "price %s", got.Price)

		err = repo.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			_, err := tx.Append(ctx, &domain.TransactionRecord{
				SessionID: "s1",
				Items:     []domain.OrderLine{{ProductID: product.ID, Quantity: 1, UnitPrice: price}},
				Total:     total,
				Status:    domain.TransactionStatusCompleted,
			})
			return err
		})
		require.NoError(t, err)

		records, err := repo.ListBySession(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, total.Equal(records[0].Total), "total %s", records[0].Total)
		assert.True(t, price.Equal(records[0].Items[0].UnitPrice))
	})

	t.Run("DeadlineDuringUnitReturnsContextError", func(t *testing.T) {
		repo := newRepo(t)
		product := &domain.Product{Name: "p", Price: decimal.NewFromInt(1), InventoryCount: 10}
		require.NoError(t, repo.CreateProduct(context.Background(), product))

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		err := repo.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			require.NoError(t, tx.DecrementIfSufficient(ctx, product.ID, 4))
			_, err := tx.Append(ctx, &domain.TransactionRecord{
				SessionID: "s1",
				Total:     decimal.NewFromInt(4),
				Status:    domain.TransactionStatusCompleted,
			})
			require.NoError(t, err)
			<-ctx.Done()
			return nil
		})

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, store.ErrStorage)

		p, err := repo.GetProduct(context.Background(), product.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(10), p.InventoryCount)
		records, err := repo.ListBySession(context.Background(), "s1")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("ExpiredContextNeverBegins", func(t *testing.T) {
		repo := newRepo(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := repo.WithinTx(ctx, func(context.Context, store.Tx) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("LateProductStaysMissing", func(t *testing.T) {
		repo := newRepo(t)
		if repo.Dialect() == DialectSQLite {
			t.Skip("sqlite runs one unit at a time")
		}
		ctx := context.Background()
		first := &domain.Product{Name: "a", Price: decimal.NewFromInt(1), InventoryCount: 5}
		require.NoError(t, repo.CreateProduct(ctx, first))
		lateID := first.ID + 100

		err := repo.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			require.NoError(t, tx.LockProducts(ctx, []int64{lateID, first.ID}))
			require.NoError(t, repo.CreateProduct(context.Background(), &domain.Product{
				ID: lateID, Name: "late", Price: decimal.NewFromInt(1), InventoryCount: 5,
			}))

			_, err := tx.GetProduct(ctx, lateID)
			var nf *store.ProductNotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, lateID, nf.ProductID)
			assert.ErrorIs(t, tx.DecrementIfSufficient(ctx, lateID, 1), store.ErrProductNotFound)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("ConcurrentUnitsNeverOversell", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		product := &domain.Product{Name: "p", Price: decimal.NewFromInt(1), InventoryCount: 100}
		require.NoError(t, repo.CreateProduct(ctx, product))

		var succeeded atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
					if err := tx.LockProducts(ctx, []int64{product.ID}); err != nil {
						return err
					}
					return tx.DecrementIfSufficient(ctx, product.ID, 20)
				})
				if err == nil {
					succeeded.Add(1)
				} else {
					assert.ErrorIs(t, err, store.ErrInsufficientInventory)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(5), succeeded.Load())
		p, err := repo.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(0), p.InventoryCount)
	})
}
