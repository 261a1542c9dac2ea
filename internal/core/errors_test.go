package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ValidationError{Message: "bad"}, CodeValidation},
		{&InsufficientStockError{SKU: "X"}, CodeInsufficientStock},
		{&NotFoundError{Entity: "item", Key: "1"}, CodeNotFound},
		{&ConflictError{Message: "dup"}, CodeConflict},
		{&UnauthorizedError{Action: "delete", Required: RoleAdmin, Actual: RoleViewer}, CodeUnauthorized},
		{fmt.Errorf("run 3: %w", &NotFoundError{Entity: "run", Key: "3"}), CodeNotFound},
		{errors.New("connection reset"), CodeInternal},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v): expected %s, got %s", tt.err, tt.want, got)
		}
	}
}

func TestInsufficientStockError_Message(t *testing.T) {
	agg := &InsufficientStockError{SKU: "BOLT", Required: decimal.NewFromInt(5), Available: decimal.NewFromInt(4)}
	if got := agg.Error(); got != "insufficient stock for component BOLT: required 5, available 4" {
		t.Errorf("Unexpected message: %q", got)
	}

	loc := &InsufficientStockError{SKU: "BOLT", Location: "WH-A", Required: decimal.NewFromInt(5), Available: decimal.NewFromInt(4)}
	if got := loc.Error(); got != "insufficient stock for item BOLT in WH-A: available 4, required 5" {
		t.Errorf("Unexpected message: %q", got)
	}
}

func TestTranslatePgError(t *testing.T) {
	var ce *ConflictError
	err := translatePgError(&pgconn.PgError{Code: "23505", ConstraintName: "serialized_units_serial_key"}, "insert serial")
	if !errors.As(err, &ce) {
		t.Errorf("Expected ConflictError for unique violation, got %v", err)
	}

	var ne *NotFoundError
	err = translatePgError(&pgconn.PgError{Code: "23503", ConstraintName: "package_items_item_id_fkey"}, "insert package item")
	if !errors.As(err, &ne) {
		t.Errorf("Expected NotFoundError for FK violation, got %v", err)
	}

	var ve *ValidationError
	err = translatePgError(&pgconn.PgError{Code: "23514", ConstraintName: "stock_details_quantity_check"}, "update detail")
	if !errors.As(err, &ve) {
		t.Errorf("Expected ValidationError for check violation, got %v", err)
	}

	plain := errors.New("boom")
	err = translatePgError(plain, "insert run")
	if !errors.Is(err, plain) {
		t.Errorf("Expected wrapped original error, got %v", err)
	}
	if ErrorCode(err) != CodeInternal {
		t.Errorf("Expected internal code, got %s", ErrorCode(err))
	}
}
