package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	mcore "github.com/soltio/crypto-gateway/mocks/port/core"
)

func fixedTimeProvider(now time.Time) *mcore.MockTimeProvider {
	tp := new(mcore.MockTimeProvider)
	tp.On("Now").Return(now)
	return tp
}

func TestNewInvoice(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		merchantID  string
		amount      string
		currency    string
		intent      SettlementIntent
		expectError error
	}{
		{
			name:       "Valid plain invoice",
			merchantID: "merchant-1",
			amount:     "100.00",
			currency:   "usd",
			intent:     PlainPayment(),
		},
		{
			name:       "Valid plan upgrade invoice",
			merchantID: "merchant-1",
			amount:     "49.00",
			currency:   "USD",
			intent:     PlanUpgrade(PlanPro),
		},
		{
			name:        "Missing merchant id",
			merchantID:  "",
			amount:      "100.00",
			currency:    "USD",
			intent:      PlainPayment(),
			expectError: errs.ErrValidation,
		},
		{
			name:        "Plan upgrade without plan id",
			merchantID:  "merchant-1",
			amount:      "49.00",
			currency:    "USD",
			intent:      SettlementIntent{Kind: IntentPlanUpgrade},
			expectError: errs.ErrValidation,
		},
		{
			name:        "Customer deposit without customer id",
			merchantID:  "merchant-1",
			amount:      "10.00",
			currency:    "USD",
			intent:      SettlementIntent{Kind: IntentCustomerDeposit},
			expectError: errs.ErrValidation,
		},
		{
			name:        "Unknown intent kind",
			merchantID:  "merchant-1",
			amount:      "10.00",
			currency:    "USD",
			intent:      SettlementIntent{Kind: "SOMETHING_ELSE"},
			expectError: errs.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			inv, err := NewInvoice(tt.merchantID, amount, tt.currency, tt.intent, "order-1", "desc", false, fixedTimeProvider(now))

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(inv.ID, IDPrefix))
			assert.Equal(t, InvoicePending, inv.Status)
			assert.Equal(t, "USD", inv.Currency)
			assert.Equal(t, now, inv.CreatedAt)
			assert.False(t, inv.IsCompleted())
		})
	}
}

func TestNewInvoiceRejectsNonPositiveAmount(t *testing.T) {
	now := time.Now()
	_, err := NewInvoice("merchant-1", decimal.Zero, "USD", PlainPayment(), "", "", false, fixedTimeProvider(now))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)

	_, err = NewInvoice("merchant-1", decimal.NewFromInt(-10), "USD", PlainPayment(), "", "", false, fixedTimeProvider(now))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
}

func TestNewInvoiceDefaultsCurrencyToUSD(t *testing.T) {
	inv, err := NewInvoice("merchant-1", decimal.NewFromInt(10), "", PlainPayment(), "", "", false, fixedTimeProvider(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "USD", inv.Currency)
}

func TestPaymentReference(t *testing.T) {
	inv := &Invoice{ID: "SOLTIO-A1B2C3D4"}
	assert.Equal(t, "PAY-A1B2C3D4", inv.PaymentReference())

	short := &Invoice{ID: "ABC"}
	assert.Equal(t, "PAY-ABC", short.PaymentReference())
}

func TestExpiresAtDependsOnRail(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inv := &Invoice{CreatedAt: created}

	processorWindow := 60 * time.Minute
	directWindow := 30 * time.Minute

	assert.Equal(t, created.Add(processorWindow), inv.ExpiresAt(RailProcessor, processorWindow, directWindow))
	assert.Equal(t, created.Add(directWindow), inv.ExpiresAt(RailDirectTransfer, processorWindow, directWindow))
}

func TestNewIDIsPrefixedAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.True(t, strings.HasPrefix(id, IDPrefix))
		assert.Len(t, id, len(IDPrefix)+8)
		assert.False(t, seen[id], "generated a duplicate id")
		seen[id] = true
	}
}
