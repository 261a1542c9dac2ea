package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ValidationError is a caller-correctable rejection: a non-positive quantity,
// a missing selection, a malformed request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// InsufficientStockError reports a component or location that cannot cover a requirement.
type InsufficientStockError struct {
	SKU       string
	Location  string // empty when checked against the aggregate
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("insufficient stock for item %s in %s: available %s, required %s",
			e.SKU, e.Location, e.Available.String(), e.Required.String())
	}
	return fmt.Sprintf("insufficient stock for component %s: required %s, available %s",
		e.SKU, e.Required.String(), e.Available.String())
}

// NotFoundError reports a missing item, location, BOM, order, run or shipment.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// ConflictError reports a state clash: duplicate serial, a transfer already completed.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// UnauthorizedError is returned before any state is read when the actor's role is too low.
type UnauthorizedError struct {
	Action   string
	Required Role
	Actual   Role
}

func (e *UnauthorizedError) Error() string {
	if e.Required == "" {
		return e.Action + ": invalid credentials"
	}
	return fmt.Sprintf("%s requires role %s, actor has %s", e.Action, e.Required, e.Actual)
}

// Error codes used by adapters for structured results.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorCode classifies err into one of the Code* constants. It returns "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *ValidationError
		ie *InsufficientStockError
		ne *NotFoundError
		ce *ConflictError
		ue *UnauthorizedError
	)
	switch {
	case errors.As(err, &ve):
		return CodeValidation
	case errors.As(err, &ie):
		return CodeInsufficientStock
	case errors.As(err, &ne):
		return CodeNotFound
	case errors.As(err, &ce):
		return CodeConflict
	case errors.As(err, &ue):
		return CodeUnauthorized
	default:
		return CodeInternal
	}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translatePgError maps constraint violations onto the domain taxonomy so callers
// see a ConflictError for a duplicate serial whether it was caught by the pre-check
// or by the unique index.
func translatePgError(err error, what string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", what, err)
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return &ConflictError{Message: fmt.Sprintf("%s: %s already exists", what, pgErr.ConstraintName)}
	case pgForeignKeyViolation:
		return &NotFoundError{Entity: "referenced row", Key: pgErr.ConstraintName}
	case pgCheckViolation:
		return &ValidationError{Message: fmt.Sprintf("%s: violates %s", what, pgErr.ConstraintName)}
	}
	return fmt.Errorf("%s: %w", what, err)
}
