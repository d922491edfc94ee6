package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
)

// ListBySession reads committed records of a session with a single statement, oldest first
func (r *Repository) ListBySession(ctx context.Context, sessionID string) ([]domain.TransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, items, total, payment_details, status, created_at
		 FROM transactions WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	records := make([]domain.TransactionRecord, 0)
	for rows.Next() {
		var (
			rec       domain.TransactionRecord
			itemsJSON []byte
			status    string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&itemsJSON,
			&rec.Total,
			&rec.PaymentDetails,
			&status,
			dbTime{&rec.CreatedAt},
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &rec.Items); err != nil {
			return nil, fmt.Errorf("unmarshal transaction items: %w", err)
		}
		rec.Status = domain.TransactionStatus(status)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return records, nil
}
