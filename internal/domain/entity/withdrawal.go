package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
)

// WithdrawalStatus defines possible status values for a withdrawal
type WithdrawalStatus string

// Withdrawal statuses. Balance is debited optimistically at request time and
// refunded exactly once if and only if the withdrawal is REJECTED.
const (
	WithdrawalPending   WithdrawalStatus = "PENDING"
	WithdrawalApproved  WithdrawalStatus = "APPROVED"
	WithdrawalCompleted WithdrawalStatus = "COMPLETED"
	WithdrawalRejected  WithdrawalStatus = "REJECTED"
)

// IsValidWithdrawalStatus validates an operator-supplied target status
func IsValidWithdrawalStatus(status string) bool {
	switch WithdrawalStatus(status) {
	case WithdrawalApproved, WithdrawalCompleted, WithdrawalRejected:
		return true
	default:
		return false
	}
}

// Withdrawal represents a merchant payout request
type Withdrawal struct {
	ID         string
	MerchantID string
	Amount     decimal.Decimal
	Currency   string
	Address    string
	Status     WithdrawalStatus
	TxHash     string // set only when COMPLETED
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewWithdrawal creates a pending withdrawal request after validation
func NewWithdrawal(
	merchantID string,
	amount decimal.Decimal,
	currency string,
	address string,
	timeProvider coreport.TimeProvider,
) (*Withdrawal, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("%w: merchant id is required", errs.ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, errs.ErrInvalidAmount
	}
	if currency == "" || address == "" {
		return nil, fmt.Errorf("%w: currency and destination address are required", errs.ErrValidation)
	}

	now := timeProvider.Now()
	return &Withdrawal{
		ID:         NewID(),
		MerchantID: merchantID,
		Amount:     NormalizeAmount(amount),
		Currency:   currency,
		Address:    address,
		Status:     WithdrawalPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsTerminal reports whether no further resolution is permitted
func (w *Withdrawal) IsTerminal() bool {
	return w.Status == WithdrawalCompleted || w.Status == WithdrawalRejected
}

// Customer is a sub-ledger account owned by a merchant, credited when a
// customer-deposit invoice settles.
type Customer struct {
	ID         string
	MerchantID string
	Balance    decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
