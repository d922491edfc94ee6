package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
	"github.com/shopspring/decimal"
)

// Aggregator rebuilds per-session spend history from committed ledger records
type Aggregator struct {
	sessions store.SessionReader
	ledger   store.LedgerReader
	log      *slog.Logger
}

func NewAggregator(sessions store.SessionReader, ledger store.LedgerReader, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{sessions: sessions, ledger: ledger, log: log}
}

func (a *Aggregator) GetAnalytics(ctx context.Context, sessionID string) (*domain.Analytics, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrInvalidArgument)
	}

	session, err := a.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, classify("get session", err)
	}

	records, err := a.ledger.ListBySession(ctx, sessionID)
	if err != nil {
		a.log.ErrorContext(ctx, "failed to list transactions", slog.String("session_id", sessionID), slog.Any("error", err))
		return nil, classify("list transactions", err)
	}

	totalSpent := decimal.Zero
	for _, record := range records {
		totalSpent = totalSpent.Add(record.Total)
	}

	return &domain.Analytics{
		Session:          session.Summary(),
		Transactions:     records,
		TotalSpent:       totalSpent,
		TransactionCount: len(records),
	}, nil
}
