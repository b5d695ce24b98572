package invoice

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
	"github.com/soltio/crypto-gateway/internal/domain/port/gateway"
	"github.com/soltio/crypto-gateway/internal/domain/usecase/fee"
	mcore "github.com/soltio/crypto-gateway/mocks/port/core"
	mgate "github.com/soltio/crypto-gateway/mocks/port/gateway"
	mpers "github.com/soltio/crypto-gateway/mocks/port/persistence"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// Key for transaction context
const txKey contextKey = "tx"

var testOptions = Options{
	CheckoutBaseURL:      "https://pay.soltio.io",
	CallbackURL:          "https://api.soltio.io/api/webhooks/processor",
	ProcessorExpiry:      60 * time.Minute,
	DirectTransferExpiry: 30 * time.Minute,
	DefaultPayCurrency:   "usdttrc20",
}

type serviceMocks struct {
	uow       *mpers.MockUnitOfWork
	invRepo   *mpers.MockInvoiceRepository
	txRepo    *mpers.MockTransactionRepository
	merRepo   *mpers.MockMerchantRepository
	processor *mgate.MockProcessorClient
	tp        *mcore.MockTimeProvider
	logger    *mcore.MockLogger
}

func newServiceMocks(now time.Time) *serviceMocks {
	m := &serviceMocks{
		uow:       new(mpers.MockUnitOfWork),
		invRepo:   new(mpers.MockInvoiceRepository),
		txRepo:    new(mpers.MockTransactionRepository),
		merRepo:   new(mpers.MockMerchantRepository),
		processor: new(mgate.MockProcessorClient),
		tp:        new(mcore.MockTimeProvider),
		logger:    new(mcore.MockLogger),
	}
	m.tp.On("Now").Return(now)
	m.logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Info", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Error", mock.Anything, mock.Anything).Maybe()
	return m
}

func (m *serviceMocks) service() *Service {
	return NewService(m.uow, m.invRepo, m.txRepo, m.merRepo, m.processor,
		fee.NewCalculator(fee.DefaultRates()), m.tp, m.logger, testOptions)
}

func openInvoicePair(now time.Time) (*entity.Invoice, *entity.Transaction) {
	inv := &entity.Invoice{
		ID:         "SOLTIO-INV00001",
		MerchantID: "merchant-1",
		Amount:     decimal.RequireFromString("100.00"),
		Currency:   "USD",
		Status:     entity.InvoicePending,
		Intent:     entity.PlainPayment(),
		CreatedAt:  now,
	}
	txn := &entity.Transaction{
		ID:           "SOLTIO-TX000001",
		PlatformTxID: "SOLTIO-TX000001",
		InvoiceID:    inv.ID,
		MerchantID:   inv.MerchantID,
		Amount:       inv.Amount,
		Currency:     inv.Currency,
		Status:       entity.TxPending,
	}
	return inv, txn
}

func TestCreateInvoice(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	m := newServiceMocks(time.Now())

	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetInvoiceRepository", txCtx).Return(m.invRepo)
	m.uow.On("GetTransactionRepository", txCtx).Return(m.txRepo)
	m.invRepo.On("Create", txCtx, mock.AnythingOfType("*entity.Invoice")).Return(nil)
	m.txRepo.On("Create", txCtx, mock.AnythingOfType("*entity.Transaction")).Return(nil)
	m.uow.On("Commit", txCtx).Return(nil)

	created, err := m.service().CreateInvoice(ctx, CreateInvoiceRequest{
		MerchantID: "merchant-1",
		Amount:     "100.00",
		Currency:   "usd",
		OrderID:    "order-42",
	})
	require.NoError(t, err)

	assert.Equal(t, "100.00", created.Amount)
	assert.Equal(t, "USD", created.Currency)
	assert.Equal(t, "https://pay.soltio.io/pay/"+created.InvoiceID, created.PaymentURL)
	assert.NotEmpty(t, created.PlatformTxID)
	m.uow.AssertExpectations(t)
}

func TestCreateInvoiceRejectsBadAmount(t *testing.T) {
	m := newServiceMocks(time.Now())

	_, err := m.service().CreateInvoice(context.Background(), CreateInvoiceRequest{
		MerchantID: "merchant-1",
		Amount:     "not-a-number",
	})
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	m.uow.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestCreateInvoiceRollsBackOnTransactionCreateFailure(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	m := newServiceMocks(time.Now())
	dbErr := errors.New("insert failed")

	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetInvoiceRepository", txCtx).Return(m.invRepo)
	m.uow.On("GetTransactionRepository", txCtx).Return(m.txRepo)
	m.uow.On("Rollback", txCtx).Return(nil)
	m.invRepo.On("Create", txCtx, mock.Anything).Return(nil)
	m.txRepo.On("Create", txCtx, mock.Anything).Return(dbErr)

	_, err := m.service().CreateInvoice(ctx, CreateInvoiceRequest{
		MerchantID: "merchant-1",
		Amount:     "100.00",
	})
	assert.ErrorIs(t, err, dbErr)
	m.uow.AssertCalled(t, "Rollback", txCtx)
	m.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestInitiateProcessorPayment(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	inv, txn := openInvoicePair(now)
	m := newServiceMocks(now)

	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)
	m.processor.On("CreatePayment", ctx, mock.MatchedBy(func(req gateway.PaymentRequest) bool {
		return req.OrderID == inv.ID &&
			req.PayCurrency == "usdttrc20" &&
			req.CallbackURL == testOptions.CallbackURL
	})).Return(&gateway.PaymentDetails{
		PaymentID:   "5077125000",
		PayAddress:  "TAddr123",
		PayAmount:   decimal.RequireFromString("100.20"),
		PayCurrency: "usdttrc20",
	}, nil)
	m.txRepo.On("Update", ctx, txn).Return(nil)

	payment, err := m.service().InitiateProcessorPayment(ctx, inv.ID, "")
	require.NoError(t, err)

	assert.Equal(t, "5077125000", payment.PaymentID)
	assert.Equal(t, "TAddr123", payment.PayAddress)
	assert.Equal(t, "100.20", payment.PayAmount)

	// The transaction now carries rail coordinates and a processor-rail quote
	assert.Equal(t, "5077125000", txn.ProviderTxID)
	assert.Equal(t, "3.00", entity.FormatAmount(txn.FeePlatform))
	assert.Equal(t, "0.50", entity.FormatAmount(txn.FeeProvider))
	assert.Equal(t, "97.00", entity.FormatAmount(txn.AmountMerchant))
}

func TestInitiateProcessorPaymentTestMode(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inv, txn := openInvoicePair(now)
	inv.IsTestMode = true
	m := newServiceMocks(now)

	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)
	m.txRepo.On("Update", ctx, txn).Return(nil)

	payment, err := m.service().InitiateProcessorPayment(ctx, inv.ID, "")
	require.NoError(t, err)

	// Test mode never touches the live processor
	m.processor.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
	assert.Equal(t, "TEST_WALLET_ADDRESS_DO_NOT_PAY", payment.PayAddress)
	assert.Contains(t, payment.PaymentID, "test_")
}

func TestInitiateProcessorPaymentOnCompletedInvoice(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	inv, _ := openInvoicePair(now)
	inv.Status = entity.InvoiceCompleted
	m := newServiceMocks(now)

	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)

	_, err := m.service().InitiateProcessorPayment(ctx, inv.ID, "")
	assert.ErrorIs(t, err, errs.ErrAlreadyPaid)
	m.processor.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
}

func TestInitiateDirectTransfer(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	inv, txn := openInvoicePair(now)
	m := newServiceMocks(now)

	merchant := &entity.Merchant{ID: "merchant-1", BinancePayID: "123456789"}

	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(merchant, nil)
	m.txRepo.On("Update", ctx, txn).Return(nil)

	payment, err := m.service().InitiateDirectTransfer(ctx, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, "123456789", payment.PayID)
	assert.Equal(t, "100.00", payment.Amount)
	assert.Equal(t, inv.PaymentReference(), payment.Note)

	// Direct transfers carry no provider fee
	assert.Equal(t, "3.00", entity.FormatAmount(txn.FeePlatform))
	assert.True(t, txn.FeeProvider.IsZero())
	assert.Equal(t, "3.00", entity.FormatAmount(txn.ProfitPlatform))
}

func TestInitiateDirectTransferRequiresPayID(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	inv, txn := openInvoicePair(now)
	m := newServiceMocks(now)

	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(&entity.Merchant{ID: "merchant-1"}, nil)

	_, err := m.service().InitiateDirectTransfer(ctx, inv.ID)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
	m.txRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestGetInvoiceView(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inv, txn := openInvoicePair(now)
	txn.PayAddress = "TAddr123"
	txn.PayAmount = decimal.RequireFromString("100.20")
	txn.PayCurrency = "usdttrc20"
	m := newServiceMocks(now)

	merchant := &entity.Merchant{ID: "merchant-1", BrandName: "Acme Crypto", ThemeBgColor: "#112233"}

	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(merchant, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)

	view, err := m.service().GetInvoiceView(ctx, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, "Acme Crypto", view.MerchantName)
	assert.Equal(t, "#112233", view.ThemeBgColor)
	assert.Equal(t, now.Add(testOptions.ProcessorExpiry), view.ExpiresAt)
	require.NotNil(t, view.Transaction)
	assert.Equal(t, "100.20", view.Transaction.PayAmount)
	assert.Equal(t, "usdttrc20", view.Transaction.PayCurrency)
}

func TestGetInvoiceViewDirectTransferExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inv, txn := openInvoicePair(now)
	m := newServiceMocks(now)

	// The direct transfer rail was initiated: pay address is the Pay ID
	merchant := &entity.Merchant{ID: "merchant-1", BinancePayID: "123456789"}
	txn.PayAddress = merchant.BinancePayID

	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(merchant, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)

	view, err := m.service().GetInvoiceView(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(testOptions.DirectTransferExpiry), view.ExpiresAt)
}

func TestGetInvoiceViewDefaultsTheme(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	inv, txn := openInvoicePair(now)
	m := newServiceMocks(now)

	m.invRepo.On("GetByID", ctx, inv.ID).Return(inv, nil)
	m.merRepo.On("GetByID", ctx, "merchant-1").Return(&entity.Merchant{ID: "merchant-1", Name: "acme"}, nil)
	m.txRepo.On("GetByInvoiceID", ctx, inv.ID).Return(txn, nil)

	view, err := m.service().GetInvoiceView(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "#f4f5f8", view.ThemeBgColor)
	assert.Equal(t, "acme", view.MerchantName)
}
