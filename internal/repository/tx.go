package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
	"github.com/google/uuid"
)

const EventTransactionCommitted = "transaction.committed"

// WithinTx runs fn inside a database transaction that is committed only when fn succeeds.
// Once ctx is done the unit is rolled back and the context error is returned.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return store.NewStorageError("begin", err)
	}

	committed := false
	defer func() {
		if !committed {
			r.rollback(ctx, tx)
		}
	}()

	if err := fn(ctx, &sqlTx{tx: tx, dialect: r.dialect, now: r.now}); err != nil {
		// a cancelled statement surfaces as a driver error; report the deadline instead
		if ctxErr := ctx.Err(); ctxErr != nil && !store.IsCallerError(err) {
			return ctxErr
		}
		return err
	}

	// database/sql has already rolled back a tx whose context is done
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return store.NewStorageError("commit", err)
	}
	committed = true
	return nil
}

type rollbacker interface {
	Rollback() error
}

func (r *Repository) rollback(ctx context.Context, tx rollbacker) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		r.log.ErrorContext(ctx, "failed to rollback transaction", slog.Any("error", err))
	}
}

type sqlTx struct {
	tx      *sql.Tx
	dialect Dialect
	now     func() time.Time
	// ids that did not exist when LockProducts ran; they stay missing for the rest of the unit
	absent map[int64]bool
}

// LockProducts takes row locks in ascending id order. sqlite runs one unit at a time and needs none.
func (t *sqlTx) LockProducts(ctx context.Context, ids []int64) error {
	if !t.dialect.isPostgres() {
		return nil
	}
	ids = store.SortedUnique(ids)
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`SELECT id FROM products WHERE id IN (%s) ORDER BY id FOR UPDATE`, placeholders(len(ids)))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("lock products: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock products: %w", err)
	}

	for _, id := range ids {
		if !found[id] {
			if t.absent == nil {
				t.absent = make(map[int64]bool)
			}
			t.absent[id] = true
		}
	}
	return nil
}

func (t *sqlTx) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if t.absent[id] {
		return nil, &store.ProductNotFoundError{ProductID: id}
	}
	query := `SELECT id, name, description, price, inventory_count, created_at FROM products WHERE id = $1`
	if t.dialect.isPostgres() {
		query += ` FOR UPDATE`
	}
	return scanProduct(t.tx.QueryRowContext(ctx, query, id), id)
}

// DecrementIfSufficient checks and decrements in one statement
func (t *sqlTx) DecrementIfSufficient(ctx context.Context, id int64, quantity int32) error {
	if t.absent[id] {
		return &store.ProductNotFoundError{ProductID: id}
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE products SET inventory_count = inventory_count - $1 WHERE id = $2 AND inventory_count >= $1`,
		quantity, id)
	if err != nil {
		return fmt.Errorf("decrement inventory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement inventory: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var available int32
	err = t.tx.QueryRowContext(ctx, `SELECT inventory_count FROM products WHERE id = $1`, id).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return &store.ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return fmt.Errorf("read inventory: %w", err)
	}
	return &store.InsufficientInventoryError{ProductID: id, Requested: quantity, Available: available}
}

type transactionCommittedPayload struct {
	TransactionID uuid.UUID          `json:"transaction_id"`
	SessionID     string             `json:"session_id"`
	Items         []domain.OrderLine `json:"items"`
	Total         string             `json:"total"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Append writes the ledger record and its outbox event in the same transaction
func (t *sqlTx) Append(ctx context.Context, record *domain.TransactionRecord) (uuid.UUID, error) {
	record.ID = uuid.New()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = t.now().UTC()
	}

	itemsJSON, err := json.Marshal(record.Items)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal transaction items: %w", err)
	}

	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO transactions (id, session_id, items, total, payment_details, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID.String(),
		record.SessionID,
		string(itemsJSON),
		record.Total,
		record.PaymentDetails,
		string(record.Status),
		t.dialect.timeArg(record.CreatedAt))
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert transaction: %w", err)
	}

	payload, err := json.Marshal(transactionCommittedPayload{
		TransactionID: record.ID,
		SessionID:     record.SessionID,
		Items:         record.Items,
		Total:         record.Total.String(),
		Status:        record.Status.String(),
		CreatedAt:     record.CreatedAt,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4)`,
		record.SessionID,
		EventTransactionCommitted,
		string(payload),
		t.dialect.timeArg(record.CreatedAt))
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return record.ID, nil
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}
