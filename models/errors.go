package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when an entity id does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized is returned when an entity exists but belongs to a
	// different user than the caller.
	ErrUnauthorized = errors.New("access denied: you can only access your own data")

	// ErrDuplicateBudget is returned when an active budget already covers the
	// same category and period.
	ErrDuplicateBudget = errors.New("budget already exists for this category and period")

	// ErrDuplicateEmail is returned on registration with a taken email.
	ErrDuplicateEmail = errors.New("email already registered")
)

// InsufficientBalanceError rejects an expense that exceeds the account's
// current balance. Spending the account to exactly zero is allowed.
type InsufficientBalanceError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, required %s",
		e.Available.StringFixed(2), e.Required.StringFixed(2))
}

// ValidationError marks malformed input caught at the boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
