package service

import "errors"

var (
	ErrInvalidOrder    = errors.New("invalid order")
	ErrInvalidArgument = errors.New("invalid argument")
)

// IsInvalidInput reports whether err was caused by a malformed request
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidOrder) || errors.Is(err, ErrInvalidArgument)
}
