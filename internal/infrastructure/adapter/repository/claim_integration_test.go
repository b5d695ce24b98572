package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/database"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/logger"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/model"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/repository"
	timeprovider "github.com/soltio/crypto-gateway/internal/infrastructure/adapter/time"
)

// These tests exercise the conditional-update claims against a real
// database, since row locking and RowsAffected semantics are what carry the
// exactly-once guarantees. They skip when no test database is configured.

func claimTestDB(t *testing.T) *database.TestDBManager {
	t.Helper()

	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("TEST_DB_HOST not set; skipping database-backed claim tests")
	}

	mgr := database.NewTestDBManager(t, logger.NewNoopLogger())
	require.NoError(t, mgr.Connect(t))
	mgr.SetupTestDB(t)
	t.Cleanup(func() { mgr.Close(t) })
	return mgr
}

func seedPendingTransaction(t *testing.T, mgr *database.TestDBManager, merchantID, txID string) {
	t.Helper()

	db := mgr.Manager.DB()
	now := time.Now()

	mgr.CreateTestMerchant(t, merchantID, decimal.Zero)
	require.NoError(t, db.Create(&model.Invoice{
		ID:         "SOLTIO-INV" + txID[len(txID)-6:],
		MerchantID: merchantID,
		Amount:     decimal.RequireFromString("100.00"),
		Currency:   "USD",
		Status:     string(entity.InvoicePending),
		IntentKind: string(entity.IntentPlainPayment),
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)
	require.NoError(t, db.Create(&model.Transaction{
		ID:           txID,
		ProviderTxID: "5077125000",
		InvoiceID:    "SOLTIO-INV" + txID[len(txID)-6:],
		MerchantID:   merchantID,
		Amount:       decimal.RequireFromString("100.00"),
		Currency:     "USD",
		Status:       string(entity.TxPending),
		CreatedAt:    now,
	}).Error)
}

func seedWithdrawal(t *testing.T, mgr *database.TestDBManager, merchantID, id string, status entity.WithdrawalStatus, txHash string) {
	t.Helper()

	now := time.Now()
	require.NoError(t, mgr.Manager.DB().Create(&model.Withdrawal{
		ID:         id,
		MerchantID: merchantID,
		Amount:     decimal.RequireFromString("50.00"),
		Currency:   "USDT",
		Address:    "TAddr123",
		Status:     string(status),
		TxHash:     txHash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)
}

func TestClaimForSettlementSingleWinner(t *testing.T) {
	mgr := claimTestDB(t)
	seedPendingTransaction(t, mgr, "merchant-race", "SOLTIO-TXRACE1")

	repo := repository.NewTransactionRepository(mgr.Manager.DB(), timeprovider.NewRealTimeProvider(), logger.NewNoopLogger())
	ctx := context.Background()

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.ClaimForSettlement(ctx, "SOLTIO-TXRACE1")
		}()
	}
	wg.Wait()
	close(results)

	winners, losers := 0, 0
	for err := range results {
		switch {
		case err == nil:
			winners++
		case errs.IsAlreadySettledError(err):
			losers++
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, attempts-1, losers)

	var m model.Transaction
	require.NoError(t, mgr.Manager.DB().First(&m, "id = ?", "SOLTIO-TXRACE1").Error)
	assert.Equal(t, string(entity.TxSuccess), m.Status)
}

func TestDebitAvailableGuardUnderContention(t *testing.T) {
	mgr := claimTestDB(t)
	mgr.CreateTestMerchant(t, "merchant-debit", decimal.RequireFromString("100.00"))

	repo := repository.NewMerchantRepository(mgr.Manager.DB(), timeprovider.NewRealTimeProvider(), logger.NewNoopLogger())
	ctx := context.Background()
	debit := decimal.RequireFromString("30.00")

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.DebitAvailable(ctx, "merchant-debit", debit)
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
			continue
		}
		require.True(t, errs.IsInsufficientBalanceError(err), "unexpected debit error: %v", err)
	}

	// 100.00 only covers three 30.00 debits, no matter the interleaving
	assert.Equal(t, 3, winners)

	merchant, err := repo.GetByID(ctx, "merchant-debit")
	require.NoError(t, err)
	assert.Equal(t, "10.00", entity.FormatAmount(merchant.AvailableBalance))
}

func TestClaimRejectionSingleWinner(t *testing.T) {
	mgr := claimTestDB(t)
	mgr.CreateTestMerchant(t, "merchant-wd", decimal.Zero)
	seedWithdrawal(t, mgr, "merchant-wd", "SOLTIO-WDRACE01", entity.WithdrawalPending, "")

	repo := repository.NewWithdrawalRepository(mgr.Manager.DB(), timeprovider.NewRealTimeProvider(), logger.NewNoopLogger())
	ctx := context.Background()

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.ClaimRejection(ctx, "SOLTIO-WDRACE01")
		}()
	}
	wg.Wait()
	close(results)

	winners, losers := 0, 0
	for err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, errs.ErrDuplicateWithdrawalResolution):
			losers++
		default:
			t.Fatalf("unexpected rejection claim error: %v", err)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, attempts-1, losers)
}

func TestWithdrawalTerminalRowsNeverReopen(t *testing.T) {
	mgr := claimTestDB(t)
	mgr.CreateTestMerchant(t, "merchant-paid", decimal.Zero)
	seedWithdrawal(t, mgr, "merchant-paid", "SOLTIO-WDDONE01", entity.WithdrawalCompleted, "0xabc123")

	repo := repository.NewWithdrawalRepository(mgr.Manager.DB(), timeprovider.NewRealTimeProvider(), logger.NewNoopLogger())
	ctx := context.Background()

	// A paid-out withdrawal cannot be steered back to a refundable state
	err := repo.UpdateStatus(ctx, "SOLTIO-WDDONE01", entity.WithdrawalApproved, "")
	assert.ErrorIs(t, err, errs.ErrDuplicateWithdrawalResolution)

	// Nor rejected-and-refunded directly
	err = repo.ClaimRejection(ctx, "SOLTIO-WDDONE01")
	assert.ErrorIs(t, err, errs.ErrDuplicateWithdrawalResolution)

	var m model.Withdrawal
	require.NoError(t, mgr.Manager.DB().First(&m, "id = ?", "SOLTIO-WDDONE01").Error)
	assert.Equal(t, string(entity.WithdrawalCompleted), m.Status)
	assert.Equal(t, "0xabc123", m.TxHash)

	// Rejected rows are equally closed
	seedWithdrawal(t, mgr, "merchant-paid", "SOLTIO-WDREJ001", entity.WithdrawalRejected, "")
	err = repo.UpdateStatus(ctx, "SOLTIO-WDREJ001", entity.WithdrawalCompleted, "0xdef456")
	assert.ErrorIs(t, err, errs.ErrDuplicateWithdrawalResolution)
}
