package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	mcore "github.com/soltio/crypto-gateway/mocks/port/core"
	mgate "github.com/soltio/crypto-gateway/mocks/port/gateway"
	mpers "github.com/soltio/crypto-gateway/mocks/port/persistence"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// Key for transaction context
const txKey contextKey = "tx"

type settlerMocks struct {
	uow      *mpers.MockUnitOfWork
	txRepo   *mpers.MockTransactionRepository
	invRepo  *mpers.MockInvoiceRepository
	merRepo  *mpers.MockMerchantRepository
	cusRepo  *mpers.MockCustomerRepository
	notifier *mgate.MockMerchantNotifier
	tp       *mcore.MockTimeProvider
	logger   *mcore.MockLogger
}

func newSettlerMocks() *settlerMocks {
	m := &settlerMocks{
		uow:      new(mpers.MockUnitOfWork),
		txRepo:   new(mpers.MockTransactionRepository),
		invRepo:  new(mpers.MockInvoiceRepository),
		merRepo:  new(mpers.MockMerchantRepository),
		cusRepo:  new(mpers.MockCustomerRepository),
		notifier: new(mgate.MockMerchantNotifier),
		tp:       new(mcore.MockTimeProvider),
		logger:   new(mcore.MockLogger),
	}
	m.logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Info", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Error", mock.Anything, mock.Anything).Maybe()
	return m
}

func (m *settlerMocks) settler() *Settler {
	return NewSettler(m.uow, m.notifier, m.tp, m.logger)
}

func quotedTransaction() (*entity.Transaction, *entity.Invoice) {
	inv := &entity.Invoice{
		ID:         "SOLTIO-INV00001",
		MerchantID: "merchant-1",
		Amount:     decimal.RequireFromString("100.00"),
		Currency:   "USD",
		Status:     entity.InvoicePending,
		Intent:     entity.PlainPayment(),
	}
	txn := &entity.Transaction{
		ID:             "SOLTIO-TX000001",
		PlatformTxID:   "SOLTIO-TX000001",
		ProviderTxID:   "5077125000",
		InvoiceID:      inv.ID,
		MerchantID:     inv.MerchantID,
		Amount:         inv.Amount,
		Currency:       inv.Currency,
		PayAmount:      decimal.RequireFromString("100.2"),
		PayCurrency:    "usdttrc20",
		FeePlatform:    decimal.RequireFromString("3.00"),
		FeeProvider:    decimal.RequireFromString("0.50"),
		ProfitPlatform: decimal.RequireFromString("2.50"),
		AmountMerchant: decimal.RequireFromString("97.00"),
		Status:         entity.TxPending,
	}
	return txn, inv
}

func TestSettleSuccess(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	txn, inv := quotedTransaction()

	m := newSettlerMocks()
	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetTransactionRepository", txCtx).Return(m.txRepo)
	m.uow.On("GetInvoiceRepository", txCtx).Return(m.invRepo)
	m.uow.On("GetMerchantRepository", mock.Anything).Return(m.merRepo)
	m.tp.On("Now").Return(now)

	m.txRepo.On("ClaimForSettlement", txCtx, txn.ID).Return(nil)
	m.txRepo.On("Update", txCtx, txn).Return(nil)
	m.invRepo.On("GetByID", txCtx, inv.ID).Return(inv, nil)
	m.invRepo.On("MarkCompleted", txCtx, inv.ID).Return(nil)
	m.merRepo.On("CreditSettlement", txCtx, "merchant-1", txn.AmountMerchant).Return(nil)
	m.uow.On("Commit", txCtx).Return(nil)

	// Merchant has no webhook configured, so no notification goes out
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(&entity.Merchant{ID: "merchant-1"}, nil)

	err := m.settler().Settle(ctx, txn)
	require.NoError(t, err)

	assert.Equal(t, entity.TxSuccess, txn.Status)
	require.NotNil(t, txn.ProcessedAt)
	assert.Equal(t, now, *txn.ProcessedAt)
	m.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.uow.AssertExpectations(t)
	m.txRepo.AssertExpectations(t)
	m.merRepo.AssertExpectations(t)
}

func TestSettleLostClaimIsBenign(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	txn, _ := quotedTransaction()

	m := newSettlerMocks()
	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetTransactionRepository", txCtx).Return(m.txRepo)
	m.uow.On("GetInvoiceRepository", txCtx).Return(m.invRepo)
	m.uow.On("GetMerchantRepository", txCtx).Return(m.merRepo)
	m.uow.On("Rollback", txCtx).Return(nil)

	// A concurrent caller already flipped the row
	m.txRepo.On("ClaimForSettlement", txCtx, txn.ID).Return(errs.ErrAlreadySettled)

	err := m.settler().Settle(ctx, txn)
	assert.ErrorIs(t, err, errs.ErrAlreadySettled)

	// The losing caller must not touch the ledger or notify anyone
	m.txRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	m.invRepo.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything)
	m.merRepo.AssertNotCalled(t, "CreditSettlement", mock.Anything, mock.Anything, mock.Anything)
	m.uow.AssertNotCalled(t, "Commit", mock.Anything)
	m.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettleRejectsBrokenFeeBreakdown(t *testing.T) {
	txn, _ := quotedTransaction()
	txn.AmountMerchant = decimal.RequireFromString("90.00")

	m := newSettlerMocks()

	err := m.settler().Settle(context.Background(), txn)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConstraintViolation)
	m.uow.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestSettleAppliesPlanUpgradeIntent(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	now := time.Now()
	txn, inv := quotedTransaction()
	inv.Intent = entity.PlanUpgrade(entity.PlanPro)

	m := newSettlerMocks()
	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetTransactionRepository", txCtx).Return(m.txRepo)
	m.uow.On("GetInvoiceRepository", txCtx).Return(m.invRepo)
	m.uow.On("GetMerchantRepository", mock.Anything).Return(m.merRepo)
	m.tp.On("Now").Return(now)

	m.txRepo.On("ClaimForSettlement", txCtx, txn.ID).Return(nil)
	m.txRepo.On("Update", txCtx, txn).Return(nil)
	m.invRepo.On("GetByID", txCtx, inv.ID).Return(inv, nil)
	m.invRepo.On("MarkCompleted", txCtx, inv.ID).Return(nil)
	m.merRepo.On("UpgradePlan", txCtx, "merchant-1", entity.PlanPro).Return(nil)
	m.merRepo.On("CreditSettlement", txCtx, "merchant-1", txn.AmountMerchant).Return(nil)
	m.uow.On("Commit", txCtx).Return(nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(&entity.Merchant{ID: "merchant-1"}, nil)

	err := m.settler().Settle(ctx, txn)
	require.NoError(t, err)
	m.merRepo.AssertCalled(t, "UpgradePlan", txCtx, "merchant-1", entity.PlanPro)
}

func TestSettleAppliesCustomerDepositIntent(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	now := time.Now()
	txn, inv := quotedTransaction()
	inv.Intent = entity.CustomerDeposit("customer-7")

	m := newSettlerMocks()
	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetTransactionRepository", txCtx).Return(m.txRepo)
	m.uow.On("GetInvoiceRepository", txCtx).Return(m.invRepo)
	m.uow.On("GetMerchantRepository", mock.Anything).Return(m.merRepo)
	m.uow.On("GetCustomerRepository", txCtx).Return(m.cusRepo)
	m.tp.On("Now").Return(now)

	m.txRepo.On("ClaimForSettlement", txCtx, txn.ID).Return(nil)
	m.txRepo.On("Update", txCtx, txn).Return(nil)
	m.invRepo.On("GetByID", txCtx, inv.ID).Return(inv, nil)
	m.invRepo.On("MarkCompleted", txCtx, inv.ID).Return(nil)
	m.cusRepo.On("CreditBalance", txCtx, "customer-7", inv.Amount).Return(nil)
	m.merRepo.On("CreditSettlement", txCtx, "merchant-1", txn.AmountMerchant).Return(nil)
	m.uow.On("Commit", txCtx).Return(nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(&entity.Merchant{ID: "merchant-1"}, nil)

	err := m.settler().Settle(ctx, txn)
	require.NoError(t, err)
	m.cusRepo.AssertCalled(t, "CreditBalance", txCtx, "customer-7", inv.Amount)
}

func TestSettleRollsBackOnCreditFailure(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	now := time.Now()
	txn, inv := quotedTransaction()
	dbErr := errors.New("connection reset")

	m := newSettlerMocks()
	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetTransactionRepository", txCtx).Return(m.txRepo)
	m.uow.On("GetInvoiceRepository", txCtx).Return(m.invRepo)
	m.uow.On("GetMerchantRepository", mock.Anything).Return(m.merRepo)
	m.uow.On("Rollback", txCtx).Return(nil)
	m.tp.On("Now").Return(now)

	m.txRepo.On("ClaimForSettlement", txCtx, txn.ID).Return(nil)
	m.txRepo.On("Update", txCtx, txn).Return(nil)
	m.invRepo.On("GetByID", txCtx, inv.ID).Return(inv, nil)
	m.invRepo.On("MarkCompleted", txCtx, inv.ID).Return(nil)
	m.merRepo.On("CreditSettlement", txCtx, "merchant-1", txn.AmountMerchant).Return(dbErr)

	err := m.settler().Settle(ctx, txn)
	require.Error(t, err)

	var settlementErr *errs.SettlementError
	assert.ErrorAs(t, err, &settlementErr)
	m.uow.AssertCalled(t, "Rollback", txCtx)
	m.uow.AssertNotCalled(t, "Commit", mock.Anything)
	m.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettleNotifiesMerchantWithWebhook(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	now := time.Now()
	txn, inv := quotedTransaction()

	merchant := &entity.Merchant{
		ID:               "merchant-1",
		WebhookURL:       "https://shop.example.com/hooks/payments",
		WebhookSecretEnc: "enc:secret",
	}

	m := newSettlerMocks()
	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetTransactionRepository", txCtx).Return(m.txRepo)
	m.uow.On("GetInvoiceRepository", txCtx).Return(m.invRepo)
	m.uow.On("GetMerchantRepository", mock.Anything).Return(m.merRepo)
	m.tp.On("Now").Return(now)

	m.txRepo.On("ClaimForSettlement", txCtx, txn.ID).Return(nil)
	m.txRepo.On("Update", txCtx, txn).Return(nil)
	m.invRepo.On("GetByID", txCtx, inv.ID).Return(inv, nil)
	m.invRepo.On("MarkCompleted", txCtx, inv.ID).Return(nil)
	m.merRepo.On("CreditSettlement", txCtx, "merchant-1", txn.AmountMerchant).Return(nil)
	m.uow.On("Commit", txCtx).Return(nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(merchant, nil)
	m.notifier.On("Notify", ctx, merchant.WebhookURL, merchant.WebhookSecretEnc, mock.Anything).Return()

	err := m.settler().Settle(ctx, txn)
	require.NoError(t, err)

	m.notifier.AssertCalled(t, "Notify", ctx, merchant.WebhookURL, merchant.WebhookSecretEnc, mock.Anything)
}
