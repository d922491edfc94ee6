package store

import (
	"errors"
	"fmt"
)

// Common errors returned by the stores
var (
	ErrProductNotFound       = errors.New("product not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrSessionNotFound       = errors.New("session not found")
	ErrStorage               = errors.New("storage failure")
	ErrProductExists         = errors.New("product already exists")
	ErrSessionExists         = errors.New("session already exists")
)

type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error {
	return ErrProductNotFound
}

type InsufficientInventoryError struct {
	ProductID int64
	Requested int32
	Available int32
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}

type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.SessionID)
}

func (e *SessionNotFoundError) Unwrap() error {
	return ErrSessionNotFound
}

// StorageError is an infrastructure fault of the underlying store.
// It matches both ErrStorage and the original cause.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// NewStorageError wraps err unless it is already a storage error
func NewStorageError(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsCallerError reports whether err is an expected, caller-facing outcome rather than a fault
func IsCallerError(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrInsufficientInventory) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrProductExists) ||
		errors.Is(err, ErrSessionExists)
}
