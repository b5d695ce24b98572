package entity

import (
	"strings"

	"github.com/shopspring/decimal"

	errs "github.com/soltio/crypto-gateway/internal/domain/error"
)

// MinorUnitPlaces is the number of decimal places kept for monetary values.
// All amounts are normalized to currency minor units with banker's rounding;
// binary floating point never touches money.
const MinorUnitPlaces = 2

// MatchTolerance is the absolute tolerance used when matching an exchange
// transfer amount against an invoice amount, absorbing rail-side rounding.
var MatchTolerance = decimal.NewFromFloat(0.01)

// ParseAmount validates and normalizes a string amount to minor-unit precision.
// Rejects empty, malformed, zero and negative values.
func ParseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, errs.ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, errs.ErrInvalidAmount
	}

	if !amount.IsPositive() {
		return decimal.Zero, errs.ErrInvalidAmount
	}

	return amount.RoundBank(MinorUnitPlaces), nil
}

// NormalizeAmount rounds an already-validated amount to minor-unit precision.
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(MinorUnitPlaces)
}

// AmountsMatch reports whether two amounts agree within MatchTolerance.
func AmountsMatch(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(MatchTolerance)
}

// FormatAmount renders an amount with exactly two decimal places for API
// responses and checkout instructions.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(MinorUnitPlaces)
}
