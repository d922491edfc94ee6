package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAnalytics_SumsCommittedOrders(t *testing.T) {
	f := setupEngine(t, DefaultOptions())
	f.addProduct(t, 1, "10.00", 10)
	f.addProduct(t, 2, "0.99", 10)

	_, err := f.engine.ProcessOrder(context.Background(), order(item(1, 2)))
	require.NoError(t, err)
	_, err = f.engine.ProcessOrder(context.Background(), order(item(2, 3), item(1, 1)))
	require.NoError(t, err)
	_, err = f.engine.ProcessOrder(context.Background(), order(item(2, 100)))
	require.Error(t, err)

	aggregator := NewAggregator(f.store, f.store, logger.Nop())
	analytics, err := aggregator.GetAnalytics(context.Background(), testSession)

	require.NoError(t, err)
	assert.Equal(t, testSession, analytics.Session.SessionID)
	assert.Equal(t, 2, analytics.TransactionCount)
	assert.Len(t, analytics.Transactions, 2)
	// 20.00 + 12.97
	assert.Equal(t, "32.97", domain.FormatAmount(analytics.TotalSpent, 2))
}

func TestGetAnalytics_NoTransactions(t *testing.T) {
	f := setupEngine(t, DefaultOptions())

	analytics, err := NewAggregator(f.store, f.store, nil).GetAnalytics(context.Background(), testSession)

	require.NoError(t, err)
	assert.Equal(t, 0, analytics.TransactionCount)
	assert.Empty(t, analytics.Transactions)
	assert.True(t, analytics.TotalSpent.IsZero())
}

func TestGetAnalytics_SessionNotFound(t *testing.T) {
	sessions := &MockSessions{Err: &store.SessionNotFoundError{SessionID: "ghost"}}
	ledger := &MockLedger{}

	_, err := NewAggregator(sessions, ledger, logger.Nop()).GetAnalytics(context.Background(), "ghost")

	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestGetAnalytics_EmptySessionID(t *testing.T) {
	_, err := NewAggregator(&MockSessions{}, &MockLedger{}, logger.Nop()).GetAnalytics(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetAnalytics_LedgerFailureIsStorageFailure(t *testing.T) {
	sessions := &MockSessions{Session: &domain.Session{SessionID: "s1"}}
	ledger := &MockLedger{Err: errors.New("connection refused")}

	_, err := NewAggregator(sessions, ledger, logger.Nop()).GetAnalytics(context.Background(), "s1")

	assert.ErrorIs(t, err, store.ErrStorage)
}

func TestGetAnalytics_UsesRecordTotals(t *testing.T) {
	expires := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sessions := &MockSessions{Session: &domain.Session{
		SessionID:    "s1",
		UserData:     []byte(`{"name":"Ann"}`),
		PersonalInfo: []byte(`{"email":"ann@example.com"}`),
		ExpiresAt:    expires,
	}}
	ledger := &MockLedger{Records: []domain.TransactionRecord{
		{ID: uuid.New(), SessionID: "s1", Total: decimal.RequireFromString("0.10")},
		{ID: uuid.New(), SessionID: "s1", Total: decimal.RequireFromString("0.20")},
	}}

	analytics, err := NewAggregator(sessions, ledger, logger.Nop()).GetAnalytics(context.Background(), "s1")

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.30").Equal(analytics.TotalSpent))
	assert.Equal(t, 2, analytics.TransactionCount)
	assert.Equal(t, expires, analytics.Session.ExpiresAt)
	assert.JSONEq(t, `{"email":"ann@example.com"}`, string(analytics.Session.PersonalInfo))
}
