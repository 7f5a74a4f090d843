package core_test

import (
	"testing"

	"treasury-bot/internal/core"

	"github.com/shopspring/decimal"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "R$ 0,00"},
		{"150", "R$ 150,00"},
		{"150.5", "R$ 150,50"},
		{"1500", "R$ 1.500,00"},
		{"1234567.89", "R$ 1.234.567,89"},
		{"-42.10", "-R$ 42,10"},
	}

	for _, tt := range tests {
		d, err := decimal.NewFromString(tt.amount)
		if err != nil {
			t.Fatalf("bad test amount %q: %v", tt.amount, err)
		}
		if got := core.FormatBRL(d); got != tt.want {
			t.Errorf("FormatBRL(%s) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
