package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tolerance absorbs rounding when comparing the aggregate tier with the sum of detail rows.
var Tolerance = decimal.New(1, -3)

// ParseQuantity parses a non-negative quantity from its decimal string form.
func ParseQuantity(s string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Message: fmt.Sprintf("invalid quantity %q", s)}
	}
	if q.IsNegative() {
		return decimal.Zero, &ValidationError{Message: fmt.Sprintf("quantity cannot be negative, got %s", q)}
	}
	return q, nil
}

// IsWholeUnit reports whether q has no fractional part.
func IsWholeUnit(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(0))
}

// WithinTolerance reports whether a and b differ by at most Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

func requirePositive(q decimal.Decimal, what string) error {
	if !q.IsPositive() {
		return &ValidationError{Message: fmt.Sprintf("%s must be positive, got %s", what, q)}
	}
	return nil
}
