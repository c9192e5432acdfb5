/*
errors.go - Centralized error taxonomy for the ledger core

PURPOSE:
  Every core operation either returns a result or fails with exactly one of
  the errors defined here. Errors are business-rule rejections, never
  retried internally, and propagate unchanged to the presentation layer,
  which owns the mapping to transport responses.

ERROR CATEGORIES:
  1. Lookup failures   - NotFoundError
  2. Uniqueness        - DuplicateKeyError
  3. Ledger rules      - InactiveAccountError, InsufficientBalanceError
  4. Lifecycle guards  - ConflictingStateError
  5. Input shape       - ValidationError (raised at the API boundary only)
  6. Catch-all         - ErrInternal (the only error allowed to hide its cause)

USAGE:
  Match with errors.Is against the sentinels, or errors.As against the
  structured types when the caller needs the context they carry:

    if errors.Is(err, domain.ErrInsufficientBalance) { ... }

    var ib *domain.InsufficientBalanceError
    if errors.As(err, &ib) { ... ib.Current, ib.Requested ... }
*/
package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced client, account or movement
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a unique field (client code,
	// identification, account number) would collide with another record.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInactiveAccount is returned when a movement targets a deactivated
	// account.
	ErrInactiveAccount = errors.New("account inactive")

	// ErrInsufficientBalance is returned when a debit would drive the
	// account balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConflictingState is returned when a lifecycle transition is blocked
	// by related records (e.g. deactivating a client that owns accounts).
	ErrConflictingState = errors.New("conflicting state")

	// ErrValidation is returned for malformed input. The core treats its
	// inputs as pre-validated; only the API boundary raises this.
	ErrValidation = errors.New("validation failed")

	// ErrInternal is the catch-all for unanticipated failures.
	ErrInternal = errors.New("internal error")
)

// =============================================================================
// STRUCTURED ERRORS - Carry enough context to be user-facing
// =============================================================================

// NotFoundError identifies the missing record by kind and key.
type NotFoundError struct {
	Kind string // "client", "account", "movement"
	Key  any    // id, code, or number that failed to resolve
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateKeyError names the colliding unique field and its value.
type DuplicateKeyError struct {
	Field string // "code", "identification", "number"
	Value string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s: %q already exists", e.Field, e.Value)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// InactiveAccountError reports a movement against a deactivated account.
type InactiveAccountError struct {
	AccountID AccountID
}

func (e *InactiveAccountError) Error() string {
	return fmt.Sprintf("account %d is inactive", e.AccountID)
}

func (e *InactiveAccountError) Unwrap() error { return ErrInactiveAccount }

// InsufficientBalanceError reports a debit the current balance cannot cover.
type InsufficientBalanceError struct {
	AccountID AccountID
	Current   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on account %d: current %s, requested %s",
		e.AccountID, e.Current, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// ConflictingStateError reports a blocked lifecycle transition.
type ConflictingStateError struct {
	Reason string
}

func (e *ConflictingStateError) Error() string { return e.Reason }

func (e *ConflictingStateError) Unwrap() error { return ErrConflictingState }

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is a business-rule rejection the
// caller can act on, as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrInactiveAccount) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrConflictingState) ||
		errors.Is(err, ErrValidation)
}
