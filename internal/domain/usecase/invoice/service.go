package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/domain/port/gateway"
	"github.com/soltio/crypto-gateway/internal/domain/port/persistence"
	"github.com/soltio/crypto-gateway/internal/domain/usecase/fee"
)

// Options carries the checkout-facing knobs read from configuration
type Options struct {
	// CheckoutBaseURL prefixes hosted checkout links, e.g. https://pay.example.com
	CheckoutBaseURL string
	// CallbackURL is the processor IPN endpoint we register on each payment
	CallbackURL string
	// ProcessorExpiry is the payment window for processor-routed invoices
	ProcessorExpiry time.Duration
	// DirectTransferExpiry is the tighter window for manual peer transfers
	DirectTransferExpiry time.Duration
	// DefaultPayCurrency is used when the payer does not pick one
	DefaultPayCurrency string
}

// Service implements invoice lifecycle operations: creation, rail initiation
// and the read-only checkout projection.
type Service struct {
	uow          persistence.UnitOfWork
	invoices     persistence.InvoiceRepository
	transactions persistence.TransactionRepository
	merchants    persistence.MerchantRepository
	processor    gateway.ProcessorClient
	fees         *fee.Calculator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	opts         Options
}

// NewService creates the invoice lifecycle service
func NewService(
	uow persistence.UnitOfWork,
	invoices persistence.InvoiceRepository,
	transactions persistence.TransactionRepository,
	merchants persistence.MerchantRepository,
	processor gateway.ProcessorClient,
	fees *fee.Calculator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	opts Options,
) *Service {
	return &Service{
		uow:          uow,
		invoices:     invoices,
		transactions: transactions,
		merchants:    merchants,
		processor:    processor,
		fees:         fees,
		timeProvider: timeProvider,
		logger:       logger,
		opts:         opts,
	}
}

// CreateInvoiceRequest is the validated input for invoice creation
type CreateInvoiceRequest struct {
	MerchantID       string
	Amount           string
	Currency         string
	OrderID          string
	OrderDescription string
	Intent           entity.SettlementIntent
	TestMode         bool
}

// CreatedInvoice is returned to the merchant after creation
type CreatedInvoice struct {
	InvoiceID    string
	PlatformTxID string
	PaymentURL   string
	Amount       string
	Currency     string
}

// CreateInvoice creates a pending invoice plus its paired zero-fee
// transaction in one durable transaction and returns the checkout link.
func (s *Service) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*CreatedInvoice, error) {
	amount, err := entity.ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	intent := req.Intent
	if intent.Kind == "" {
		intent = entity.PlainPayment()
	}

	inv, err := entity.NewInvoice(
		req.MerchantID, amount, req.Currency, intent,
		req.OrderID, req.OrderDescription, req.TestMode, s.timeProvider,
	)
	if err != nil {
		return nil, err
	}

	txn, err := entity.NewTransaction(inv, s.timeProvider)
	if err != nil {
		return nil, err
	}

	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin invoice creation: %w", err)
	}

	if err := s.uow.GetInvoiceRepository(txCtx).Create(txCtx, inv); err != nil {
		_ = s.uow.Rollback(txCtx)
		return nil, err
	}
	if err := s.uow.GetTransactionRepository(txCtx).Create(txCtx, txn); err != nil {
		_ = s.uow.Rollback(txCtx)
		return nil, err
	}
	if err := s.uow.Commit(txCtx); err != nil {
		return nil, err
	}

	s.logger.Info("Invoice created", map[string]any{
		"invoice_id":  inv.ID,
		"merchant_id": inv.MerchantID,
		"amount":      entity.FormatAmount(inv.Amount),
		"currency":    inv.Currency,
		"intent":      string(inv.Intent.Kind),
		"test_mode":   inv.IsTestMode,
	})

	return &CreatedInvoice{
		InvoiceID:    inv.ID,
		PlatformTxID: txn.PlatformTxID,
		PaymentURL:   fmt.Sprintf("%s/pay/%s", s.opts.CheckoutBaseURL, inv.ID),
		Amount:       entity.FormatAmount(inv.Amount),
		Currency:     inv.Currency,
	}, nil
}

// ProcessorPayment is the payer-facing result of initiating the processor rail
type ProcessorPayment struct {
	PaymentID   string
	PayAddress  string
	PayAmount   string
	PayCurrency string
}

// InitiateProcessorPayment registers the payment with the external processor
// (or a deterministic stub in test mode), quotes fees, and stores the rail
// coordinates on the paired transaction.
func (s *Service) InitiateProcessorPayment(ctx context.Context, invoiceID, payCurrency string) (*ProcessorPayment, error) {
	inv, txn, err := s.loadOpenInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if payCurrency == "" {
		payCurrency = s.opts.DefaultPayCurrency
	}

	details, err := s.createProcessorPayment(ctx, inv, payCurrency)
	if err != nil {
		return nil, err
	}

	txn.ApplyFees(s.fees.Quote(inv.Amount, entity.RailProcessor))
	txn.AttachRail(details.PaymentID, details.PayAddress, details.PayAmount, details.PayCurrency)

	if err := s.transactions.Update(ctx, txn); err != nil {
		return nil, err
	}

	s.logger.Info("Processor payment initiated", map[string]any{
		"invoice_id":     inv.ID,
		"provider_tx_id": txn.ProviderTxID,
		"pay_currency":   details.PayCurrency,
		"test_mode":      inv.IsTestMode,
	})

	return &ProcessorPayment{
		PaymentID:   details.PaymentID,
		PayAddress:  details.PayAddress,
		PayAmount:   entity.FormatAmount(details.PayAmount),
		PayCurrency: details.PayCurrency,
	}, nil
}

// createProcessorPayment calls the live processor, except for test-mode
// invoices which settle against a deterministic stub address so the checkout
// flow works without live keys.
func (s *Service) createProcessorPayment(ctx context.Context, inv *entity.Invoice, payCurrency string) (*gateway.PaymentDetails, error) {
	if inv.IsTestMode {
		return &gateway.PaymentDetails{
			PaymentID:   fmt.Sprintf("test_%d", s.timeProvider.Now().UnixMilli()),
			PayAddress:  "TEST_WALLET_ADDRESS_DO_NOT_PAY",
			PayAmount:   inv.Amount,
			PayCurrency: payCurrency,
		}, nil
	}

	details, err := s.processor.CreatePayment(ctx, gateway.PaymentRequest{
		PriceAmount:      inv.Amount,
		PriceCurrency:    inv.Currency,
		PayCurrency:      payCurrency,
		OrderID:          inv.ID,
		OrderDescription: s.orderDescription(inv),
		CallbackURL:      s.opts.CallbackURL,
	})
	if err != nil {
		s.logger.Error("Processor payment creation failed", map[string]any{
			"invoice_id": inv.ID,
			"error":      err.Error(),
		})
		return nil, err
	}
	return details, nil
}

func (s *Service) orderDescription(inv *entity.Invoice) string {
	if inv.OrderDescription != "" {
		return inv.OrderDescription
	}
	return fmt.Sprintf("Invoice %s", inv.ID)
}

// DirectTransferPayment tells the payer where to send a peer transfer and
// which note to attach so the poll path can find it.
type DirectTransferPayment struct {
	PayID    string
	Amount   string
	Currency string
	Note     string
}

// InitiateDirectTransfer prepares the direct-transfer rail: verifies the
// merchant configured a receiving Pay ID, derives the unique payment note and
// stores it as the transaction's provider reference.
func (s *Service) InitiateDirectTransfer(ctx context.Context, invoiceID string) (*DirectTransferPayment, error) {
	inv, txn, err := s.loadOpenInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	merchant, err := s.merchants.GetByID(ctx, inv.MerchantID)
	if err != nil {
		return nil, err
	}
	if !merchant.HasDirectTransferConfig() {
		return nil, fmt.Errorf("%w: no receiving Pay ID configured", errs.ErrConfiguration)
	}

	note := inv.PaymentReference()

	txn.ApplyFees(s.fees.Quote(inv.Amount, entity.RailDirectTransfer))
	txn.AttachRail(note, merchant.BinancePayID, inv.Amount, "USDT")

	if err := s.transactions.Update(ctx, txn); err != nil {
		return nil, err
	}

	s.logger.Info("Direct transfer initiated", map[string]any{
		"invoice_id": inv.ID,
		"reference":  note,
	})

	return &DirectTransferPayment{
		PayID:    merchant.BinancePayID,
		Amount:   entity.FormatAmount(inv.Amount),
		Currency: inv.Currency,
		Note:     note,
	}, nil
}

// View is the read-only checkout projection of an invoice
type View struct {
	ID           string
	Amount       string
	Currency     string
	Status       entity.InvoiceStatus
	OrderID      string
	MerchantName string
	BrandLogoURL string
	ThemeBgColor string
	ExpiresAt    time.Time
	Transaction  *ViewTransaction
}

// ViewTransaction is the transaction subset shown on the checkout page
type ViewTransaction struct {
	Status      entity.TransactionStatus
	PayAddress  string
	PayAmount   string
	PayCurrency string
}

// GetInvoiceView merges invoice, transaction and merchant branding for the
// checkout UI. Completed invoices always project COMPLETED and trigger
// nothing; expiry is computed from the rail actually initiated.
func (s *Service) GetInvoiceView(ctx context.Context, invoiceID string) (*View, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	merchant, err := s.merchants.GetByID(ctx, inv.MerchantID)
	if err != nil {
		return nil, err
	}

	view := &View{
		ID:           inv.ID,
		Amount:       entity.FormatAmount(inv.Amount),
		Currency:     inv.Currency,
		Status:       inv.Status,
		OrderID:      inv.OrderID,
		MerchantName: merchant.DisplayName(),
		BrandLogoURL: merchant.BrandLogoURL,
		ThemeBgColor: themeOrDefault(merchant.ThemeBgColor),
	}

	rail := entity.RailProcessor
	txn, err := s.transactions.GetByInvoiceID(ctx, invoiceID)
	if err == nil {
		if txn.PayAddress == merchant.BinancePayID && merchant.BinancePayID != "" {
			rail = entity.RailDirectTransfer
		}
		payAmount := txn.PayAmount
		if payAmount.Equal(decimal.Zero) {
			payAmount = txn.Amount
		}
		payCurrency := txn.PayCurrency
		if payCurrency == "" {
			payCurrency = txn.Currency
		}
		view.Transaction = &ViewTransaction{
			Status:      txn.Status,
			PayAddress:  txn.PayAddress,
			PayAmount:   entity.FormatAmount(payAmount),
			PayCurrency: payCurrency,
		}
	} else if !errs.IsNotFoundError(err) {
		return nil, err
	}

	view.ExpiresAt = inv.ExpiresAt(rail, s.opts.ProcessorExpiry, s.opts.DirectTransferExpiry)
	return view, nil
}

func themeOrDefault(color string) string {
	if color == "" {
		return "#f4f5f8"
	}
	return color
}

// loadOpenInvoice fetches an invoice and its paired transaction, rejecting
// completed invoices.
func (s *Service) loadOpenInvoice(ctx context.Context, invoiceID string) (*entity.Invoice, *entity.Transaction, error) {
	if invoiceID == "" {
		return nil, nil, fmt.Errorf("%w: invoice id is required", errs.ErrValidation)
	}

	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	if inv.IsCompleted() {
		return nil, nil, errs.ErrAlreadyPaid
	}

	txn, err := s.transactions.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}

	return inv, txn, nil
}
