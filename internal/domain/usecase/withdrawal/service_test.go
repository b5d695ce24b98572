package withdrawal

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
	mcore "github.com/soltio/crypto-gateway/mocks/port/core"
	mpers "github.com/soltio/crypto-gateway/mocks/port/persistence"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// Key for transaction context
const txKey contextKey = "tx"

type serviceMocks struct {
	uow     *mpers.MockUnitOfWork
	repo    *mpers.MockWithdrawalRepository
	merRepo *mpers.MockMerchantRepository
	tp      *mcore.MockTimeProvider
	logger  *mcore.MockLogger
}

func newServiceMocks(now time.Time) *serviceMocks {
	m := &serviceMocks{
		uow:     new(mpers.MockUnitOfWork),
		repo:    new(mpers.MockWithdrawalRepository),
		merRepo: new(mpers.MockMerchantRepository),
		tp:      new(mcore.MockTimeProvider),
		logger:  new(mcore.MockLogger),
	}
	m.tp.On("Now").Return(now)
	m.logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Info", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Error", mock.Anything, mock.Anything).Maybe()
	return m
}

func (m *serviceMocks) service() *Service {
	return NewService(m.uow, m.repo, m.merRepo, m.tp, m.logger)
}

func TestRequestDebitsAndCreatesAtomically(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	m := newServiceMocks(time.Now())

	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetMerchantRepository", txCtx).Return(m.merRepo)
	m.uow.On("GetWithdrawalRepository", txCtx).Return(m.repo)
	m.merRepo.On("DebitAvailable", txCtx, "merchant-1", decimal.RequireFromString("50.00")).Return(nil)
	m.repo.On("Create", txCtx, mock.AnythingOfType("*entity.Withdrawal")).Return(nil)
	m.uow.On("Commit", txCtx).Return(nil)

	w, err := m.service().Request(ctx, "merchant-1", "50.00", "USDT", "TAddr123")
	require.NoError(t, err)

	assert.Equal(t, entity.WithdrawalPending, w.Status)
	assert.Equal(t, "merchant-1", w.MerchantID)
	assert.Equal(t, "50.00", entity.FormatAmount(w.Amount))
	m.uow.AssertExpectations(t)
}

func TestRequestInsufficientBalanceRollsBack(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	m := newServiceMocks(time.Now())

	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetMerchantRepository", txCtx).Return(m.merRepo)
	m.uow.On("Rollback", txCtx).Return(nil)
	m.merRepo.On("DebitAvailable", txCtx, "merchant-1", mock.Anything).
		Return(errs.NewInsufficientBalanceError("merchant-1", "500.00", "100.00"))

	_, err := m.service().Request(ctx, "merchant-1", "500.00", "USDT", "TAddr123")
	assert.ErrorIs(t, err, errs.ErrInsufficientBalance)

	m.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestRequestRejectsInvalidAmount(t *testing.T) {
	m := newServiceMocks(time.Now())

	_, err := m.service().Request(context.Background(), "merchant-1", "-5", "USDT", "TAddr123")
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	m.uow.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestResolveApprovedIsGuardedStatusFlip(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks(time.Now())

	approved := &entity.Withdrawal{ID: "SOLTIO-WD000001", MerchantID: "merchant-1",
		Amount: decimal.RequireFromString("50.00"), Status: entity.WithdrawalApproved}

	m.repo.On("UpdateStatus", ctx, approved.ID, entity.WithdrawalApproved, "").Return(nil)
	m.repo.On("GetByID", ctx, approved.ID).Return(approved, nil)

	w, err := m.service().Resolve(ctx, approved.ID, "APPROVED", "")
	require.NoError(t, err)
	assert.Equal(t, entity.WithdrawalApproved, w.Status)

	// No balance movement on approval
	m.uow.AssertNotCalled(t, "Begin", mock.Anything)
	m.merRepo.AssertNotCalled(t, "RefundAvailable", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveCompletedRecordsTxHash(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks(time.Now())

	completed := &entity.Withdrawal{ID: "SOLTIO-WD000001", MerchantID: "merchant-1",
		Amount: decimal.RequireFromString("50.00"), Status: entity.WithdrawalCompleted,
		TxHash: "0xabc123"}

	m.repo.On("UpdateStatus", ctx, completed.ID, entity.WithdrawalCompleted, "0xabc123").Return(nil)
	m.repo.On("GetByID", ctx, completed.ID).Return(completed, nil)

	w, err := m.service().Resolve(ctx, completed.ID, "COMPLETED", "0xabc123")
	require.NoError(t, err)
	assert.Equal(t, entity.WithdrawalCompleted, w.Status)
	assert.Equal(t, "0xabc123", w.TxHash)
}

func TestResolveCompletedWithdrawalStaysTerminal(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks(time.Now())

	// The repository's conditional update refuses to touch terminal rows
	m.repo.On("UpdateStatus", ctx, "SOLTIO-WD000001", entity.WithdrawalApproved, "").
		Return(errs.ErrDuplicateWithdrawalResolution)

	_, err := m.service().Resolve(ctx, "SOLTIO-WD000001", "APPROVED", "")
	assert.ErrorIs(t, err, errs.ErrDuplicateWithdrawalResolution)

	// A reopened payout must never become refundable again
	m.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	m.uow.AssertNotCalled(t, "Begin", mock.Anything)
	m.merRepo.AssertNotCalled(t, "RefundAvailable", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveRejectedRefundsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	m := newServiceMocks(time.Now())

	pending := &entity.Withdrawal{ID: "SOLTIO-WD000001", MerchantID: "merchant-1",
		Amount: decimal.RequireFromString("50.00"), Status: entity.WithdrawalPending}

	m.repo.On("GetByID", ctx, pending.ID).Return(pending, nil)
	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetWithdrawalRepository", txCtx).Return(m.repo)
	m.uow.On("GetMerchantRepository", txCtx).Return(m.merRepo)
	m.repo.On("ClaimRejection", txCtx, pending.ID).Return(nil)
	m.merRepo.On("RefundAvailable", txCtx, "merchant-1", pending.Amount).Return(nil)
	m.uow.On("Commit", txCtx).Return(nil)

	w, err := m.service().Resolve(ctx, pending.ID, "REJECTED", "")
	require.NoError(t, err)
	assert.Equal(t, entity.WithdrawalRejected, w.Status)
	m.merRepo.AssertNumberOfCalls(t, "RefundAvailable", 1)
}

func TestResolveDoubleRejectDoesNotRefundTwice(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey, "mockTransaction")
	m := newServiceMocks(time.Now())

	rejected := &entity.Withdrawal{ID: "SOLTIO-WD000001", MerchantID: "merchant-1",
		Amount: decimal.RequireFromString("50.00"), Status: entity.WithdrawalRejected}

	m.repo.On("GetByID", ctx, rejected.ID).Return(rejected, nil)
	m.uow.On("Begin", ctx).Return(txCtx, nil)
	m.uow.On("GetWithdrawalRepository", txCtx).Return(m.repo)
	m.uow.On("Rollback", txCtx).Return(nil)

	// The claim was already taken by the first rejection
	m.repo.On("ClaimRejection", txCtx, rejected.ID).Return(errs.ErrDuplicateWithdrawalResolution)

	_, err := m.service().Resolve(ctx, rejected.ID, "REJECTED", "")
	assert.ErrorIs(t, err, errs.ErrDuplicateWithdrawalResolution)

	m.merRepo.AssertNotCalled(t, "RefundAvailable", mock.Anything, mock.Anything, mock.Anything)
	m.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestResolveRejectedThenApproveIsRefused(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks(time.Now())

	// The refund already ran; the guarded update leaves the row alone
	m.repo.On("UpdateStatus", ctx, "SOLTIO-WD000001", entity.WithdrawalApproved, "").
		Return(errs.ErrDuplicateWithdrawalResolution)

	_, err := m.service().Resolve(ctx, "SOLTIO-WD000001", "APPROVED", "")
	assert.ErrorIs(t, err, errs.ErrDuplicateWithdrawalResolution)
	m.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestResolveRejectsUnknownStatus(t *testing.T) {
	m := newServiceMocks(time.Now())

	_, err := m.service().Resolve(context.Background(), "SOLTIO-WD000001", "CANCELLED", "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestResolveBatchIsPerRow(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks(time.Now())

	ok := &entity.Withdrawal{ID: "SOLTIO-WD000001", MerchantID: "merchant-1",
		Amount: decimal.RequireFromString("10.00"), Status: entity.WithdrawalApproved}

	m.repo.On("UpdateStatus", ctx, ok.ID, entity.WithdrawalApproved, "").Return(nil)
	m.repo.On("GetByID", ctx, ok.ID).Return(ok, nil)
	m.repo.On("UpdateStatus", ctx, "SOLTIO-WD000002", entity.WithdrawalApproved, "").
		Return(errs.ErrWithdrawalNotFound)

	result, err := m.service().ResolveBatch(ctx, []string{ok.ID, "SOLTIO-WD000002"}, "APPROVED", "")
	require.NoError(t, err)

	assert.Equal(t, []string{ok.ID}, result.Resolved)
	require.Contains(t, result.Failed, "SOLTIO-WD000002")
	assert.Contains(t, result.Failed["SOLTIO-WD000002"], "not found")
}

func TestResolveBatchValidation(t *testing.T) {
	m := newServiceMocks(time.Now())

	_, err := m.service().ResolveBatch(context.Background(), nil, "APPROVED", "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = m.service().ResolveBatch(context.Background(), []string{"SOLTIO-WD000001"}, "CANCELLED", "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}
