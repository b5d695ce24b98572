package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentRequest is the input for creating a payment with the external processor
type PaymentRequest struct {
	PriceAmount      decimal.Decimal
	PriceCurrency    string
	PayCurrency      string
	OrderID          string
	OrderDescription string
	CallbackURL      string
}

// PaymentDetails is the processor's answer: where and what the payer must send
type PaymentDetails struct {
	PaymentID   string // processor reference, becomes our providerTxId
	PayAddress  string
	PayAmount   decimal.Decimal
	PayCurrency string
	InvoiceURL  string
}

// ProcessorClient creates payments with the external payment processor.
// Implementations must honor the context deadline on all network calls.
type ProcessorClient interface {
	// CreatePayment registers a payment and returns the payer coordinates
	//
	// Possible errors:
	// - ErrUpstream: If the processor rejects the request or is unreachable
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentDetails, error)
}
