package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type SessionSummary struct {
	SessionID    string
	UserData     json.RawMessage
	PersonalInfo json.RawMessage
	ExpiresAt    time.Time
}

// Analytics is the spend history of a single session
type Analytics struct {
	Session          SessionSummary
	Transactions     []TransactionRecord
	TotalSpent       decimal.Decimal
	TransactionCount int
}
