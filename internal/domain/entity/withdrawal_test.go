package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/soltio/crypto-gateway/internal/domain/error"
)

func TestNewWithdrawal(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	w, err := NewWithdrawal("merchant-1", decimal.RequireFromString("50.00"), "USDT", "TAddr123", fixedTimeProvider(now))
	require.NoError(t, err)

	assert.Equal(t, WithdrawalPending, w.Status)
	assert.Equal(t, "merchant-1", w.MerchantID)
	assert.Equal(t, now, w.CreatedAt)
	assert.False(t, w.IsTerminal())
}

func TestNewWithdrawalValidation(t *testing.T) {
	tp := fixedTimeProvider(time.Now())
	amount := decimal.NewFromInt(50)

	_, err := NewWithdrawal("", amount, "USDT", "TAddr123", tp)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = NewWithdrawal("merchant-1", decimal.Zero, "USDT", "TAddr123", tp)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)

	_, err = NewWithdrawal("merchant-1", amount, "", "TAddr123", tp)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = NewWithdrawal("merchant-1", amount, "USDT", "", tp)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestWithdrawalIsTerminal(t *testing.T) {
	assert.False(t, (&Withdrawal{Status: WithdrawalPending}).IsTerminal())
	assert.False(t, (&Withdrawal{Status: WithdrawalApproved}).IsTerminal())
	assert.True(t, (&Withdrawal{Status: WithdrawalCompleted}).IsTerminal())
	assert.True(t, (&Withdrawal{Status: WithdrawalRejected}).IsTerminal())
}

func TestIsValidWithdrawalStatus(t *testing.T) {
	assert.True(t, IsValidWithdrawalStatus("APPROVED"))
	assert.True(t, IsValidWithdrawalStatus("COMPLETED"))
	assert.True(t, IsValidWithdrawalStatus("REJECTED"))
	assert.False(t, IsValidWithdrawalStatus("PENDING"))
	assert.False(t, IsValidWithdrawalStatus("approved"))
	assert.False(t, IsValidWithdrawalStatus(""))
}

func TestMerchantDisplayName(t *testing.T) {
	assert.Equal(t, "Acme Crypto", (&Merchant{BrandName: "Acme Crypto", Name: "acme"}).DisplayName())
	assert.Equal(t, "acme", (&Merchant{Name: "acme"}).DisplayName())
	assert.Equal(t, "Merchant", (&Merchant{}).DisplayName())
}

func TestMerchantCanWithdraw(t *testing.T) {
	m := &Merchant{AvailableBalance: decimal.RequireFromString("100.00")}

	assert.True(t, m.CanWithdraw(decimal.RequireFromString("100.00")))
	assert.True(t, m.CanWithdraw(decimal.RequireFromString("0.01")))
	assert.False(t, m.CanWithdraw(decimal.RequireFromString("100.01")))
	assert.False(t, m.CanWithdraw(decimal.Zero))
}
