package settlement

import (
	"context"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/domain/port/gateway"
	"github.com/soltio/crypto-gateway/internal/domain/port/persistence"
)

// Settler is the single settlement pipeline shared by the webhook and poll
// confirmers. Whoever wins the claim runs it to completion; everyone else
// gets ErrAlreadySettled and must acknowledge without touching balances.
type Settler struct {
	uow          persistence.UnitOfWork
	notifier     gateway.MerchantNotifier
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewSettler creates the shared settlement pipeline
func NewSettler(
	uow persistence.UnitOfWork,
	notifier gateway.MerchantNotifier,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Settler {
	return &Settler{
		uow:          uow,
		notifier:     notifier,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Settle claims the transaction and, inside one durable transaction, flips
// the invoice, applies the settlement intent and credits the merchant with
// the post-claim fee values. The claim is the only serialization point:
// a conditional status update whose affected-row count decides ownership.
// The merchant notification goes out after commit and never blocks.
//
// The passed transaction must already carry its fee breakdown and the
// payer-side pay fields; Settle persists them together with the claim.
func (s *Settler) Settle(ctx context.Context, txn *entity.Transaction) error {
	if err := txn.CheckFeeIdentity(); err != nil {
		return errs.NewSettlementError(txn.PlatformTxID, txn.ProviderTxID, txn.MerchantID,
			"fee breakdown violates ledger identity", err)
	}

	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return errs.NewSettlementError(txn.PlatformTxID, txn.ProviderTxID, txn.MerchantID,
			"failed to begin settlement transaction", err)
	}

	transactions := s.uow.GetTransactionRepository(txCtx)
	invoices := s.uow.GetInvoiceRepository(txCtx)
	merchants := s.uow.GetMerchantRepository(txCtx)

	if err := transactions.ClaimForSettlement(txCtx, txn.ID); err != nil {
		_ = s.uow.Rollback(txCtx)
		if errs.IsAlreadySettledError(err) {
			s.logger.Info("Settlement claim lost to concurrent caller", map[string]any{
				"platform_tx_id": txn.PlatformTxID,
				"provider_tx_id": txn.ProviderTxID,
			})
			return errs.ErrAlreadySettled
		}
		return errs.NewSettlementError(txn.PlatformTxID, txn.ProviderTxID, txn.MerchantID,
			"settlement claim failed", err)
	}

	// Claim won: persist fees, pay fields and the processing timestamp
	// alongside the status the claim already flipped.
	now := s.timeProvider.Now()
	txn.Status = entity.TxSuccess
	txn.ProcessedAt = &now
	if err := transactions.Update(txCtx, txn); err != nil {
		_ = s.uow.Rollback(txCtx)
		return errs.NewSettlementError(txn.PlatformTxID, txn.ProviderTxID, txn.MerchantID,
			"failed to persist settled transaction", err)
	}

	inv, err := invoices.GetByID(txCtx, txn.InvoiceID)
	if err != nil {
		_ = s.uow.Rollback(txCtx)
		return errs.NewSettlementError(txn.PlatformTxID, txn.ProviderTxID, txn.MerchantID,
			"failed to load invoice for settlement", err)
	}

	if err := invoices.MarkCompleted(txCtx, inv.ID); err != nil {
		_ = s.uow.Rollback(txCtx)
		return errs.NewSettlementError(txn.PlatformTxID, txn.ProviderTxID, txn.MerchantID,
			"failed to complete invoice", err)
	}

	if err := s.applyIntent(txCtx, inv); err != nil {
		_ = s.uow.Rollback(txCtx)
		return errs.NewSettlementError(txn.PlatformTxID, txn.ProviderTxID, txn.MerchantID,
			"failed to apply settlement intent", err)
	}

	if err := merchants.CreditSettlement(txCtx, txn.MerchantID, txn.AmountMerchant); err != nil {
		_ = s.uow.Rollback(txCtx)
		return errs.NewSettlementError(txn.PlatformTxID, txn.ProviderTxID, txn.MerchantID,
			"failed to credit merchant balance", err)
	}

	if err := s.uow.Commit(txCtx); err != nil {
		return errs.NewSettlementError(txn.PlatformTxID, txn.ProviderTxID, txn.MerchantID,
			"failed to commit settlement", err)
	}

	s.logger.Info("Settlement completed", map[string]any{
		"platform_tx_id":  txn.PlatformTxID,
		"provider_tx_id":  txn.ProviderTxID,
		"invoice_id":      inv.ID,
		"merchant_id":     txn.MerchantID,
		"amount":          entity.FormatAmount(txn.Amount),
		"amount_merchant": entity.FormatAmount(txn.AmountMerchant),
		"intent":          string(inv.Intent.Kind),
	})

	s.notifyMerchant(ctx, txn)
	return nil
}

// applyIntent dispatches the invoice's settlement intent. Runs inside the
// settlement transaction, so exactly once by claim construction.
func (s *Settler) applyIntent(txCtx context.Context, inv *entity.Invoice) error {
	switch inv.Intent.Kind {
	case entity.IntentPlanUpgrade:
		return s.uow.GetMerchantRepository(txCtx).UpgradePlan(txCtx, inv.MerchantID, inv.Intent.PlanID)
	case entity.IntentCustomerDeposit:
		return s.uow.GetCustomerRepository(txCtx).CreditBalance(txCtx, inv.Intent.CustomerID, inv.Amount)
	default:
		return nil
	}
}

// notifyMerchant fires the settlement webhook if the merchant configured one.
// Runs after commit; failures are the notifier's problem, never ours.
func (s *Settler) notifyMerchant(ctx context.Context, txn *entity.Transaction) {
	merchant, err := s.uow.GetMerchantRepository(ctx).GetByID(ctx, txn.MerchantID)
	if err != nil {
		s.logger.Warn("Skipping merchant notification, merchant lookup failed", map[string]any{
			"merchant_id": txn.MerchantID,
			"error":       err.Error(),
		})
		return
	}
	if !merchant.HasWebhook() {
		return
	}

	s.notifier.Notify(ctx, merchant.WebhookURL, merchant.WebhookSecretEnc, gateway.SettlementNotification{
		Event: "payment.success",
		Payment: gateway.NotificationPayment{
			PlatformTxID:     txn.PlatformTxID,
			Status:           string(txn.Status),
			Amount:           entity.FormatAmount(txn.Amount),
			Currency:         txn.Currency,
			NetSettled:       entity.FormatAmount(txn.AmountMerchant),
			PaidCurrency:     txn.PayCurrency,
			PaidCryptoAmount: txn.PayAmount.String(),
		},
	})
}
