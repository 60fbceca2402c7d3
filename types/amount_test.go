package types

import (
	"errors"
	"math"
	"testing"
)

func TestAmountFormat(t *testing.T) {
	tests := []struct {
		name     string
		amount   Amount
		decimals int32
		want     string
	}{
		{"six decimals", Amount(5_000_000), 6, "5.000000"},
		{"fractional", Amount(1_234_567), 6, "1.234567"},
		{"no decimals", Amount(42), 0, "42"},
		{"sub unit", Amount(7), 2, "0.07"},
		{"zero", Amount(0), 2, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.amount.Format(tt.decimals); got != tt.want {
				t.Errorf("Format: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		decimals int32
		want     Amount
		wantErr  bool
	}{
		{"whole", "5", 6, 5_000_000, false},
		{"fraction", "3.25", 2, 325, false},
		{"too precise", "0.001", 2, 0, true},
		{"garbage", "five", 2, 0, true},
		{"overflow", "99999999999999999999", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in, tt.decimals)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	sum, err := Amount(2_000_000).Add(3_000_000)
	if err != nil || sum != 5_000_000 {
		t.Fatalf("Add: got %d, %v", sum, err)
	}

	diff, err := Amount(5_000_000).Sub(2_000_000)
	if err != nil || diff != 3_000_000 {
		t.Fatalf("Sub: got %d, %v", diff, err)
	}

	if _, err := Amount(math.MaxInt64).Add(1); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
	if _, err := Amount(math.MinInt64).Sub(1); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}

func TestAmountPredicates(t *testing.T) {
	if !Amount(0).IsZero() || Amount(0).IsPositive() {
		t.Error("zero amount predicates wrong")
	}
	if !Amount(1).IsPositive() {
		t.Error("positive amount predicates wrong")
	}
	if Amount(-1).IsPositive() {
		t.Error("negative amount reported positive")
	}
}
