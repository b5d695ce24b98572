package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/soltio/crypto-gateway/internal/domain/error"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{name: "Valid integer amount", input: "100", expected: "100"},
		{name: "Valid decimal amount", input: "10.50", expected: "10.5"},
		{name: "Whitespace is trimmed", input: "  25.00  ", expected: "25"},
		{name: "Rounds to minor units with banker's rounding", input: "10.005", expected: "10"},
		{name: "Rounds half to even upward", input: "10.015", expected: "10.02"},
		{name: "Empty string", input: "", expectError: true},
		{name: "Whitespace only", input: "   ", expectError: true},
		{name: "Not a number", input: "abc", expectError: true},
		{name: "Zero", input: "0", expectError: true},
		{name: "Negative", input: "-5.00", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := ParseAmount(tt.input)
			if tt.expectError {
				assert.ErrorIs(t, err, errs.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, amount.String())
		})
	}
}

func TestAmountsMatch(t *testing.T) {
	tests := []struct {
		name  string
		a     string
		b     string
		match bool
	}{
		{name: "Exact match", a: "100.00", b: "100.00", match: true},
		{name: "Within tolerance below", a: "100.00", b: "99.995", match: true},
		{name: "Within tolerance above", a: "100.00", b: "100.005", match: true},
		{name: "At tolerance boundary", a: "100.00", b: "100.01", match: false},
		{name: "Outside tolerance", a: "100.00", b: "100.02", match: false},
		{name: "Different amounts", a: "100.00", b: "50.00", match: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := decimal.RequireFromString(tt.a)
			b := decimal.RequireFromString(tt.b)
			assert.Equal(t, tt.match, AmountsMatch(a, b))
			assert.Equal(t, tt.match, AmountsMatch(b, a))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "100.00", FormatAmount(decimal.NewFromInt(100)))
	assert.Equal(t, "10.50", FormatAmount(decimal.RequireFromString("10.5")))
	assert.Equal(t, "0.99", FormatAmount(decimal.RequireFromString("0.99")))
}
