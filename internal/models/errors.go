package models

import (
	"errors"
	"fmt"
)

// Sentinel errors used across services and handlers. Repositories wrap
// storage failures; services translate them into these so handlers can map
// them to HTTP status codes with errors.Is/As.
var (
	// ErrNotFound indicates a template, route, ticket or other resource is missing.
	ErrNotFound = errors.New("resource not found")

	// ErrSoldOut indicates a route has no remaining seats.
	ErrSoldOut = errors.New("no seats available for this route")

	// ErrConflict indicates a uniqueness constraint fired (duplicate
	// materialization or duplicate ticket code). Recoverable by a single
	// re-read or retry.
	ErrConflict = errors.New("conflicting concurrent write")

	// ErrForbidden indicates the caller does not own the resource.
	ErrForbidden = errors.New("operation not allowed for this user")

	// ErrInvalidCredentials indicates a failed login attempt. Deliberately
	// does not say whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPaymentDeclined indicates the payment gateway rejected the charge.
	ErrPaymentDeclined = errors.New("payment declined by gateway")
)

// MaterializationError wraps a storage-level failure while converting a
// virtual route into a physical one. The booking flow must never create a
// ticket after seeing one of these.
type MaterializationError struct {
	VirtualID string
	Err       error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("failed to materialize route %s: %v", e.VirtualID, e.Err)
}

func (e *MaterializationError) Unwrap() error {
	return e.Err
}

// ValidationError represents an invalid request payload or parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
