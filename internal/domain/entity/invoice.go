package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
)

// InvoiceStatus defines possible status values for an invoice
type InvoiceStatus string

// Invoice statuses. The transition PENDING -> COMPLETED happens exactly once,
// enforced by a conditional row update; it is never reversed.
const (
	InvoicePending   InvoiceStatus = "PENDING"
	InvoiceCompleted InvoiceStatus = "COMPLETED"
)

// IntentKind discriminates what a settled invoice pays for.
// Replaces the legacy free-text orderId prefix convention with an explicit
// type resolved through a single dispatch table at settlement time.
type IntentKind string

const (
	// IntentPlainPayment settles into the merchant balance only
	IntentPlainPayment IntentKind = "PLAIN"
	// IntentPlanUpgrade additionally upgrades the merchant's plan
	IntentPlanUpgrade IntentKind = "PLAN_UPGRADE"
	// IntentCustomerDeposit additionally credits a sub-ledger customer balance
	IntentCustomerDeposit IntentKind = "CUSTOMER_DEPOSIT"
)

// SettlementIntent is attached to an invoice at creation time and applied
// exactly once, by the settlement claim winner.
type SettlementIntent struct {
	Kind       IntentKind
	PlanID     string // set for IntentPlanUpgrade
	CustomerID string // set for IntentCustomerDeposit
}

// PlainPayment returns the default intent
func PlainPayment() SettlementIntent {
	return SettlementIntent{Kind: IntentPlainPayment}
}

// PlanUpgrade returns an intent that upgrades the merchant to planID on settlement
func PlanUpgrade(planID string) SettlementIntent {
	return SettlementIntent{Kind: IntentPlanUpgrade, PlanID: planID}
}

// CustomerDeposit returns an intent that credits a sub-ledger customer on settlement
func CustomerDeposit(customerID string) SettlementIntent {
	return SettlementIntent{Kind: IntentCustomerDeposit, CustomerID: customerID}
}

// Validate checks the intent's variant fields
func (i SettlementIntent) Validate() error {
	switch i.Kind {
	case IntentPlainPayment:
		return nil
	case IntentPlanUpgrade:
		if i.PlanID == "" {
			return fmt.Errorf("%w: plan upgrade intent requires a plan id", errs.ErrValidation)
		}
		return nil
	case IntentCustomerDeposit:
		if i.CustomerID == "" {
			return fmt.Errorf("%w: customer deposit intent requires a customer id", errs.ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown settlement intent %q", errs.ErrValidation, i.Kind)
	}
}

// Invoice represents a requested payment awaiting settlement
type Invoice struct {
	ID               string
	MerchantID       string
	Amount           decimal.Decimal
	Currency         string
	Status           InvoiceStatus
	Intent           SettlementIntent
	OrderID          string
	OrderDescription string
	IsTestMode       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IDPrefix is prepended to generated invoice and transaction identifiers
// so merchant-facing references are recognizably ours.
const IDPrefix = "SOLTIO-"

// NewID generates a prefixed opaque identifier
func NewID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return IDPrefix + raw[:8]
}

// NewInvoice creates a pending invoice after validating amount and intent
func NewInvoice(
	merchantID string,
	amount decimal.Decimal,
	currency string,
	intent SettlementIntent,
	orderID string,
	orderDescription string,
	testMode bool,
	timeProvider coreport.TimeProvider,
) (*Invoice, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("%w: merchant id is required", errs.ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, errs.ErrInvalidAmount
	}
	if currency == "" {
		currency = "USD"
	}
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	now := timeProvider.Now()
	return &Invoice{
		ID:               NewID(),
		MerchantID:       merchantID,
		Amount:           NormalizeAmount(amount),
		Currency:         strings.ToUpper(currency),
		Status:           InvoicePending,
		Intent:           intent,
		OrderID:          orderID,
		OrderDescription: orderDescription,
		IsTestMode:       testMode,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// IsCompleted reports whether the invoice reached its terminal state
func (i *Invoice) IsCompleted() bool {
	return i.Status == InvoiceCompleted
}

// PaymentReference derives the short note a direct-transfer payer must include
// so the poll path can match the incoming transfer to this invoice.
func (i *Invoice) PaymentReference() string {
	id := i.ID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "PAY-" + strings.ToUpper(id)
}

// ExpiresAt computes the payment window end for the rail used. Expiry is
// derived, never stored; clients compare against their own clock.
func (i *Invoice) ExpiresAt(rail Rail, processorWindow, directWindow time.Duration) time.Time {
	if rail == RailDirectTransfer {
		return i.CreatedAt.Add(directWindow)
	}
	return i.CreatedAt.Add(processorWindow)
}
