package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Domain errors shared by repositories, services and handlers
var (
	ErrNotFound                 = errors.New("not found")
	ErrForbidden                = errors.New("forbidden")
	ErrInvalidStatus            = errors.New("invalid status for this operation")
	ErrCancellationWindowPassed = errors.New("cancellation window has passed")
	ErrEmailTaken               = errors.New("email already registered")
	ErrAlreadyPending           = errors.New("a verification request is already pending")
	ErrBusinessNotVerified      = errors.New("business is not verified")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrAccountSuspended         = errors.New("account suspended")
	ErrInvalidToken             = errors.New("invalid or expired token")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError is a shorthand constructor
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// CapacityError is returned when a schedule cannot fit the requested participants
type CapacityError struct {
	ScheduleID uuid.UUID
	Requested  int
	Remaining  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity on schedule %s: requested %d, remaining %d",
		e.ScheduleID, e.Requested, e.Remaining)
}

// StockError is returned when an inventory item cannot cover an order line
type StockError struct {
	InventoryID uuid.UUID
	CheeseName  string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.CheeseName, e.Requested, e.Available)
}
