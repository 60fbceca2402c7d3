// Package types provides the value types shared across the escrow engine.
package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a token quantity in the token's smallest unit.
// All arithmetic is integer-only; display conversion goes through decimal.
type Amount int64

// ErrAmountOverflow is returned when an addition would exceed the int64 range.
var ErrAmountOverflow = errors.New("types: amount overflow")

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// Add returns a+b, failing instead of wrapping around.
func (a Amount) Add(b Amount) (Amount, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ErrAmountOverflow
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// Sub returns a-b.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b == math.MinInt64 {
		return 0, ErrAmountOverflow
	}
	return a.Add(-b)
}

// Decimal converts the amount to major units given the token's decimals.
// Amount(5000000).Decimal(6) is 5.
func (a Amount) Decimal(decimals int32) decimal.Decimal {
	return decimal.New(int64(a), -decimals)
}

// Format renders the amount in major units with exactly decimals places.
func (a Amount) Format(decimals int32) string {
	return a.Decimal(decimals).StringFixed(decimals)
}

// String returns the amount in smallest units.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// ParseAmount parses a major-unit string ("5.25") into smallest units.
// Values with more precision than decimals are rejected.
func ParseAmount(s string, decimals int32) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("types: parse amount %q: %w", s, err)
	}

	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("types: parse amount %q: more than %d decimal places", s, decimals)
	}
	if shifted.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || shifted.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, ErrAmountOverflow
	}

	return Amount(shifted.IntPart()), nil
}
