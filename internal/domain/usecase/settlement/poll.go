package settlement

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

// PollResult reports a successful (or already-complete) verification
type PollResult struct {
	InvoiceID        string
	PlatformTxID     string
	AlreadyCompleted bool
}

// PollConfirmer verifies direct transfers by querying the merchant's own
// exchange pay-transaction history and matching an incoming transfer against
// the invoice. It settles through the same claim pipeline as the webhook
// path, so the two race safely.
type PollConfirmer struct {
	settler      *Settler
	invoices     persistence.InvoiceRepository
	transactions persistence.TransactionRepository
	merchants    persistence.MerchantRepository
	exchange     gateway.ExchangeClient
	cipher       coreport.SecretCipher
	fees         *fee.Calculator
	window       time.Duration
	logger       coreport.Logger
}

// NewPollConfirmer creates the poll settlement confirmer. window is how far
// back the exchange history is searched.
func NewPollConfirmer(
	settler *Settler,
	invoices persistence.InvoiceRepository,
	transactions persistence.TransactionRepository,
	merchants persistence.MerchantRepository,
	exchange gateway.ExchangeClient,
	cipher coreport.SecretCipher,
	fees *fee.Calculator,
	window time.Duration,
	logger coreport.Logger,
) *PollConfirmer {
	return &PollConfirmer{
		settler:      settler,
		invoices:     invoices,
		transactions: transactions,
		merchants:    merchants,
		exchange:     exchange,
		cipher:       cipher,
		fees:         fees,
		window:       window,
		logger:       logger,
	}
}

// Verify checks whether the payer's transfer arrived and settles the invoice
// if so. Calling it again after completion is an idempotent success.
//
// Possible errors:
// - ErrInvoiceNotFound: If the invoice doesn't exist
// - ErrConfiguration: If the merchant lacks a Pay ID or exchange API keys
// - ErrInvalidCredentials / ErrClockSkew / ErrUpstream: From the exchange
// - ErrPaymentNotFound: If no matching transfer exists yet (retry later)
func (c *PollConfirmer) Verify(ctx context.Context, invoiceID string) (*PollResult, error) {
	inv, err := c.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	txn, err := c.transactions.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if inv.IsCompleted() || txn.IsSettled() {
		return &PollResult{
			InvoiceID:        inv.ID,
			PlatformTxID:     txn.PlatformTxID,
			AlreadyCompleted: true,
		}, nil
	}

	merchant, err := c.merchants.GetByID(ctx, inv.MerchantID)
	if err != nil {
		return nil, err
	}
	if !merchant.HasDirectTransferConfig() {
		return nil, fmt.Errorf("%w: no receiving Pay ID configured", errs.ErrConfiguration)
	}
	if !merchant.HasExchangeCredentials() {
		return nil, fmt.Errorf("%w: exchange API keys not configured", errs.ErrConfiguration)
	}

	creds, err := c.decryptCredentials(merchant)
	if err != nil {
		return nil, err
	}

	transfers, err := c.exchange.ListPayTransactions(ctx, creds, c.window)
	if err != nil {
		return nil, err
	}

	ref := inv.PaymentReference()
	transfer := matchTransfer(transfers, inv.Amount, ref)
	if transfer == nil {
		c.logger.Info("No matching transfer yet", map[string]any{
			"invoice_id": inv.ID,
			"reference":  ref,
			"searched":   len(transfers),
		})
		return nil, errs.NewPaymentNotFoundError(entity.FormatAmount(inv.Amount), ref)
	}

	if txn.AmountMerchant.IsZero() {
		txn.ApplyFees(c.fees.Quote(inv.Amount, entity.RailDirectTransfer))
	}
	txn.PayAmount = transfer.Amount
	if transfer.Currency != "" {
		txn.PayCurrency = transfer.Currency
	}
	if transfer.TransactionID != "" {
		txn.ProviderTxID = transfer.TransactionID
	}

	if err := c.settler.Settle(ctx, txn); err != nil {
		if errs.IsAlreadySettledError(err) {
			// The webhook path or a parallel poll got there first.
			return &PollResult{
				InvoiceID:        inv.ID,
				PlatformTxID:     txn.PlatformTxID,
				AlreadyCompleted: true,
			}, nil
		}
		return nil, err
	}

	return &PollResult{InvoiceID: inv.ID, PlatformTxID: txn.PlatformTxID}, nil
}

func (c *PollConfirmer) decryptCredentials(merchant *entity.Merchant) (gateway.ExchangeCredentials, error) {
	apiKey, err := c.cipher.Decrypt(merchant.BinanceAPIKeyEnc)
	if err != nil {
		return gateway.ExchangeCredentials{}, fmt.Errorf("%w: cannot decrypt exchange API key", errs.ErrConfiguration)
	}
	secret, err := c.cipher.Decrypt(merchant.BinanceSecretEnc)
	if err != nil {
		return gateway.ExchangeCredentials{}, fmt.Errorf("%w: cannot decrypt exchange secret", errs.ErrConfiguration)
	}
	return gateway.ExchangeCredentials{APIKey: apiKey, SecretKey: secret}, nil
}

// matchTransfer finds the first transfer that is an incoming peer payment,
// terminally successful, within amount tolerance of the invoice and carrying
// the payment reference in its note or remark.
func matchTransfer(transfers []gateway.PayTransfer, amount decimal.Decimal, ref string) *gateway.PayTransfer {
	for i := range transfers {
		t := &transfers[i]
		if !t.IsIncomingPeerTransfer() || !t.IsTerminalSuccess() {
			continue
		}
		if !entity.AmountsMatch(t.Amount, amount) {
			continue
		}
		if !t.MentionsReference(ref) {
			continue
		}
		return t
	}
	return nil
}
