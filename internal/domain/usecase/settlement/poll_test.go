package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	"github.com/soltio/crypto-gateway/internal/domain/port/gateway"
	"github.com/soltio/crypto-gateway/internal/domain/usecase/fee"
	mcore "github.com/soltio/crypto-gateway/mocks/port/core"
	mgate "github.com/soltio/crypto-gateway/mocks/port/gateway"
)

const pollWindow = 90 * time.Minute

type pollMocks struct {
	*settlerMocks
	exchange *mgate.MockExchangeClient
	cipher   *mcore.MockSecretCipher
}

func newPollMocks() *pollMocks {
	return &pollMocks{
		settlerMocks: newSettlerMocks(),
		exchange:     new(mgate.MockExchangeClient),
		cipher:       new(mcore.MockSecretCipher),
	}
}

func (m *pollMocks) confirmer() *PollConfirmer {
	return NewPollConfirmer(m.settler(), m.invRepo, m.txRepo, m.merRepo,
		m.exchange, m.cipher, fee.NewCalculator(fee.DefaultRates()), pollWindow, m.logger)
}

func configuredMerchant() *entity.Merchant {
	return &entity.Merchant{
		ID:               "merchant-1",
		BinancePayID:     "123456789",
		BinanceAPIKeyEnc: "enc:api-key",
		BinanceSecretEnc: "enc:secret-key",
	}
}

func matchingTransfer(inv *entity.Invoice) gateway.PayTransfer {
	return gateway.PayTransfer{
		TransactionID: "97911838561",
		OrderType:     "C2C",
		Amount:        inv.Amount,
		Currency:      "USDT",
		Note:          "paying invoice " + inv.PaymentReference(),
		Status:        "SUCCESS",
	}
}

func TestVerifyAlreadyCompletedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	txn, inv := quotedTransaction()
	inv.Status = entity.InvoiceCompleted

	m := newPollMocks()
	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)

	result, err := m.confirmer().Verify(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyCompleted)
	assert.Equal(t, txn.PlatformTxID, result.PlatformTxID)

	m.exchange.AssertNotCalled(t, "ListPayTransactions", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyRequiresPayID(t *testing.T) {
	ctx := context.Background()
	txn, inv := quotedTransaction()

	m := newPollMocks()
	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(&entity.Merchant{ID: "merchant-1"}, nil)

	_, err := m.confirmer().Verify(ctx, inv.ID)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestVerifyRequiresExchangeCredentials(t *testing.T) {
	ctx := context.Background()
	txn, inv := quotedTransaction()
	merchant := configuredMerchant()
	merchant.BinanceAPIKeyEnc = ""
	merchant.BinanceSecretEnc = ""

	m := newPollMocks()
	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(merchant, nil)

	_, err := m.confirmer().Verify(ctx, inv.ID)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestVerifyNoMatchLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	txn, inv := quotedTransaction()
	merchant := configuredMerchant()

	m := newPollMocks()
	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(merchant, nil)
	m.cipher.On("Decrypt", "enc:api-key").Return("api-key", nil)
	m.cipher.On("Decrypt", "enc:secret-key").Return("secret-key", nil)

	// History exists but nothing matches the invoice
	m.exchange.On("ListPayTransactions", ctx, gateway.ExchangeCredentials{APIKey: "api-key", SecretKey: "secret-key"}, pollWindow).
		Return([]gateway.PayTransfer{
			{OrderType: "C2C", Amount: decimal.RequireFromString("55.00"), Note: "unrelated", Status: "SUCCESS"},
		}, nil)

	_, err := m.confirmer().Verify(ctx, inv.ID)
	require.Error(t, err)

	var notFound *errs.PaymentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "100.00", notFound.Amount)
	assert.Equal(t, inv.PaymentReference(), notFound.Note)
	assert.True(t, errs.IsRetryablePollOutcome(err))

	// No claim, no writes
	m.uow.AssertNotCalled(t, "Begin", mock.Anything)
	m.txRepo.AssertNotCalled(t, "ClaimForSettlement", mock.Anything, mock.Anything)
}

func TestVerifyMatchSettles(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	now := time.Now()
	txn, inv := quotedTransaction()
	txn.ProviderTxID = ""
	merchant := configuredMerchant()
	transfer := matchingTransfer(inv)

	m := newPollMocks()
	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(merchant, nil)
	m.cipher.On("Decrypt", "enc:api-key").Return("api-key", nil)
	m.cipher.On("Decrypt", "enc:secret-key").Return("secret-key", nil)
	m.exchange.On("ListPayTransactions", ctx, mock.Anything, pollWindow).
		Return([]gateway.PayTransfer{transfer}, nil)

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

	result, err := m.confirmer().Verify(ctx, inv.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, txn.PlatformTxID, result.PlatformTxID)

	// The matched transfer's coordinates are recorded on the transaction
	assert.Equal(t, "97911838561", txn.ProviderTxID)
	assert.Equal(t, "USDT", txn.PayCurrency)
	assert.True(t, txn.PayAmount.Equal(transfer.Amount))
}

func TestVerifyLostRaceReportsCompleted(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	txn, inv := quotedTransaction()
	merchant := configuredMerchant()

	m := newPollMocks()
	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(merchant, nil)
	m.cipher.On("Decrypt", "enc:api-key").Return("api-key", nil)
	m.cipher.On("Decrypt", "enc:secret-key").Return("secret-key", nil)
	m.exchange.On("ListPayTransactions", ctx, mock.Anything, pollWindow).
		Return([]gateway.PayTransfer{matchingTransfer(inv)}, nil)

	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetTransactionRepository", txCtx).Return(m.txRepo)
	m.uow.On("GetInvoiceRepository", txCtx).Return(m.invRepo)
	m.uow.On("GetMerchantRepository", txCtx).Return(m.merRepo)
	m.uow.On("Rollback", txCtx).Return(nil)
	m.txRepo.On("ClaimForSettlement", txCtx, txn.ID).Return(errs.ErrAlreadySettled)

	result, err := m.confirmer().Verify(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyCompleted)
}

func TestVerifyPropagatesExchangeErrors(t *testing.T) {
	ctx := context.Background()
	txn, inv := quotedTransaction()
	merchant := configuredMerchant()

	m := newPollMocks()
	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(merchant, nil)
	m.cipher.On("Decrypt", "enc:api-key").Return("api-key", nil)
	m.cipher.On("Decrypt", "enc:secret-key").Return("secret-key", nil)
	m.exchange.On("ListPayTransactions", ctx, mock.Anything, pollWindow).
		Return(nil, errs.NewExchangeError("api.binance.com", -2015, "Invalid API-key", errs.ErrInvalidCredentials))

	_, err := m.confirmer().Verify(ctx, inv.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestMatchTransfer(t *testing.T) {
	amount := decimal.RequireFromString("100.00")
	ref := "PAY-INV00001"

	base := gateway.PayTransfer{
		OrderType: "C2C",
		Amount:    amount,
		Note:      "here you go PAY-INV00001",
		Status:    "SUCCESS",
	}

	tests := []struct {
		name    string
		mutate  func(*gateway.PayTransfer)
		matches bool
	}{
		{name: "Exact match", mutate: func(t *gateway.PayTransfer) {}, matches: true},
		{name: "PAY transaction type matches", mutate: func(t *gateway.PayTransfer) {
			t.OrderType = ""
			t.TransactionType = "PAY"
		}, matches: true},
		{name: "Reference in remark instead of note", mutate: func(t *gateway.PayTransfer) {
			t.Note = ""
			t.Remark = ref
		}, matches: true},
		{name: "Amount within tolerance", mutate: func(t *gateway.PayTransfer) {
			t.Amount = decimal.RequireFromString("100.005")
		}, matches: true},
		{name: "COMPLETED status matches", mutate: func(t *gateway.PayTransfer) {
			t.Status = "COMPLETED"
		}, matches: true},
		{name: "Not a peer transfer", mutate: func(t *gateway.PayTransfer) {
			t.OrderType = "SPOT"
		}, matches: false},
		{name: "Amount off by too much", mutate: func(t *gateway.PayTransfer) {
			t.Amount = decimal.RequireFromString("99.00")
		}, matches: false},
		{name: "Missing reference", mutate: func(t *gateway.PayTransfer) {
			t.Note = "no reference here"
		}, matches: false},
		{name: "Failed transfer", mutate: func(t *gateway.PayTransfer) {
			t.Status = "FAILED"
		}, matches: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transfer := base
			tt.mutate(&transfer)

			got := matchTransfer([]gateway.PayTransfer{transfer}, amount, ref)
			if tt.matches {
				assert.NotNil(t, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestMatchTransferPicksFirstMatch(t *testing.T) {
	amount := decimal.RequireFromString("100.00")
	ref := "PAY-INV00001"

	transfers := []gateway.PayTransfer{
		{OrderType: "C2C", Amount: decimal.RequireFromString("50.00"), Note: ref, Status: "SUCCESS"},
		{TransactionID: "first", OrderType: "C2C", Amount: amount, Note: ref, Status: "SUCCESS"},
		{TransactionID: "second", OrderType: "C2C", Amount: amount, Note: ref, Status: "SUCCESS"},
	}

	got := matchTransfer(transfers, amount, ref)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.TransactionID)
}
