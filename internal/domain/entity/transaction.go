package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
)

// Rail identifies the payment route used for an invoice
type Rail string

const (
	// RailProcessor routes through the external payment-processor API
	RailProcessor Rail = "processor"
	// RailDirectTransfer is a peer-to-peer exchange transfer verified by polling
	RailDirectTransfer Rail = "direct_transfer"
)

// IsValidRail validates a rail identifier
func IsValidRail(rail string) bool {
	return rail == string(RailProcessor) || rail == string(RailDirectTransfer)
}

// TransactionStatus defines possible status values for a transaction
type TransactionStatus string

// Transaction statuses. PENDING -> SUCCESS is the settlement claim and happens
// at most once; refund states are applied by operators after settlement.
const (
	TxPending           TransactionStatus = "PENDING"
	TxSuccess           TransactionStatus = "SUCCESS"
	TxRefunded          TransactionStatus = "REFUNDED"
	TxPartiallyRefunded TransactionStatus = "PARTIALLY_REFUNDED"
)

// FeeBreakdown is the result of quoting fees for a gross amount on a rail.
// Invariants: AmountMerchant + FeePlatform = gross;
// ProfitPlatform = FeePlatform - FeeProvider.
type FeeBreakdown struct {
	FeePlatform    decimal.Decimal
	FeeProvider    decimal.Decimal
	ProfitPlatform decimal.Decimal
	AmountMerchant decimal.Decimal
}

// Transaction is the settlement ledger record paired with an invoice
type Transaction struct {
	ID             string // doubles as the platform transaction id
	PlatformTxID   string
	ProviderTxID   string // external rail reference; idempotency/matching key
	InvoiceID      string
	MerchantID     string
	Amount         decimal.Decimal // requested gross
	Currency       string
	PayAddress     string
	PayAmount      decimal.Decimal // what the payer actually sends
	PayCurrency    string
	FeePlatform    decimal.Decimal
	FeeProvider    decimal.Decimal
	ProfitPlatform decimal.Decimal
	AmountMerchant decimal.Decimal
	Status         TransactionStatus
	IsTestMode     bool
	CreatedAt      time.Time
	ProcessedAt    *time.Time
}

// NewTransaction creates the pending settlement record paired with an invoice.
// Fees stay zero until a rail is initiated.
func NewTransaction(inv *Invoice, timeProvider coreport.TimeProvider) (*Transaction, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: transaction requires an invoice", errs.ErrValidation)
	}

	id := NewID()
	return &Transaction{
		ID:             id,
		PlatformTxID:   id,
		InvoiceID:      inv.ID,
		MerchantID:     inv.MerchantID,
		Amount:         inv.Amount,
		Currency:       inv.Currency,
		PayAmount:      decimal.Zero,
		FeePlatform:    decimal.Zero,
		FeeProvider:    decimal.Zero,
		ProfitPlatform: decimal.Zero,
		AmountMerchant: decimal.Zero,
		Status:         TxPending,
		IsTestMode:     inv.IsTestMode,
		CreatedAt:      timeProvider.Now(),
	}, nil
}

// ApplyFees stores a quoted fee breakdown on the transaction
func (t *Transaction) ApplyFees(b FeeBreakdown) {
	t.FeePlatform = b.FeePlatform
	t.FeeProvider = b.FeeProvider
	t.ProfitPlatform = b.ProfitPlatform
	t.AmountMerchant = b.AmountMerchant
}

// AttachRail records the rail-specific payment coordinates
func (t *Transaction) AttachRail(providerTxID, payAddress string, payAmount decimal.Decimal, payCurrency string) {
	t.ProviderTxID = providerTxID
	t.PayAddress = payAddress
	t.PayAmount = payAmount
	t.PayCurrency = payCurrency
}

// IsSettled reports whether the transaction reached a terminal success state
func (t *Transaction) IsSettled() bool {
	return t.Status == TxSuccess
}

// CheckFeeIdentity verifies the ledger invariants hold within one minor unit.
// Used by tests and the settlement pipeline's sanity logging.
func (t *Transaction) CheckFeeIdentity() error {
	one := decimal.New(1, -MinorUnitPlaces)

	if t.AmountMerchant.Add(t.FeePlatform).Sub(t.Amount).Abs().GreaterThan(one) {
		return fmt.Errorf("%w: amountMerchant %s + feePlatform %s != amount %s",
			errs.ErrConstraintViolation,
			t.AmountMerchant.String(), t.FeePlatform.String(), t.Amount.String())
	}

	if !t.ProfitPlatform.Equal(t.FeePlatform.Sub(t.FeeProvider)) {
		return fmt.Errorf("%w: profitPlatform %s != feePlatform %s - feeProvider %s",
			errs.ErrConstraintViolation,
			t.ProfitPlatform.String(), t.FeePlatform.String(), t.FeeProvider.String())
	}

	return nil
}
