package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionStatus string

// Only completed transactions are ever persisted.
const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted
}

// String representation (for logging)
func (s TransactionStatus) String() string {
	return string(s)
}

// OrderOutcome is the terminal state of one processOrder call
type OrderOutcome string

const (
	OrderOutcomeCommitted OrderOutcome = "COMMITTED"
	OrderOutcomeAborted   OrderOutcome = "ABORTED"
)

func (o OrderOutcome) String() string {
	return string(o)
}

// TransactionRecord is an immutable ledger entry written on commit
type TransactionRecord struct {
	ID             uuid.UUID
	SessionID      string
	Items          []OrderLine
	Total          decimal.Decimal
	PaymentDetails []byte
	Status         TransactionStatus
	CreatedAt      time.Time
}

// TransactionResult is returned to the caller of a committed order
type TransactionResult struct {
	TransactionID uuid.UUID
	Total         decimal.Decimal
	Status        TransactionStatus
}
