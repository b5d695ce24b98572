package withdrawal

import (
	"context"
	"fmt"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/domain/port/persistence"
)

// Service implements the withdrawal lifecycle: optimistic debit at request
// time, operator resolution, and the exactly-once rejection refund.
type Service struct {
	uow          persistence.UnitOfWork
	withdrawals  persistence.WithdrawalRepository
	merchants    persistence.MerchantRepository
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates the withdrawal service
func NewService(
	uow persistence.UnitOfWork,
	withdrawals persistence.WithdrawalRepository,
	merchants persistence.MerchantRepository,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          uow,
		withdrawals:  withdrawals,
		merchants:    merchants,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Request debits the merchant's available balance and records the pending
// withdrawal in one durable transaction. The debit is a single guarded
// update; a merchant racing two requests against one balance loses one.
//
// Possible errors:
// - ErrValidation / ErrInvalidAmount: If the input fails validation
// - ErrInsufficientBalance: If availableBalance < amount at debit time
func (s *Service) Request(ctx context.Context, merchantID, amount, currency, address string) (*entity.Withdrawal, error) {
	parsed, err := entity.ParseAmount(amount)
	if err != nil {
		return nil, err
	}

	w, err := entity.NewWithdrawal(merchantID, parsed, currency, address, s.timeProvider)
	if err != nil {
		return nil, err
	}

	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin withdrawal request: %w", err)
	}

	if err := s.uow.GetMerchantRepository(txCtx).DebitAvailable(txCtx, merchantID, w.Amount); err != nil {
		_ = s.uow.Rollback(txCtx)
		if errs.IsInsufficientBalanceError(err) {
			s.logger.Info("Withdrawal rejected for insufficient balance", map[string]any{
				"merchant_id": merchantID,
				"requested":   entity.FormatAmount(w.Amount),
			})
		}
		return nil, err
	}

	if err := s.uow.GetWithdrawalRepository(txCtx).Create(txCtx, w); err != nil {
		_ = s.uow.Rollback(txCtx)
		return nil, err
	}

	if err := s.uow.Commit(txCtx); err != nil {
		return nil, err
	}

	s.logger.Info("Withdrawal requested", map[string]any{
		"withdrawal_id": w.ID,
		"merchant_id":   merchantID,
		"amount":        entity.FormatAmount(w.Amount),
		"currency":      w.Currency,
	})
	return w, nil
}

// Resolve applies an operator decision to one withdrawal.
//
// APPROVED and COMPLETED are guarded status flips (COMPLETED records the
// chain transaction hash). The guard lives in the repository's conditional
// update: REJECTED and COMPLETED rows never reopen, so a paid-out withdrawal
// cannot be steered back into a refundable state. REJECTED claims the row
// and refunds the debited amount in one transaction; losing the claim means
// the refund was already applied and must not repeat.
//
// Possible errors:
// - ErrValidation: If the target status is unknown
// - ErrWithdrawalNotFound: If the withdrawal doesn't exist
// - ErrDuplicateWithdrawalResolution: If the row is already terminal
func (s *Service) Resolve(ctx context.Context, id, status, txHash string) (*entity.Withdrawal, error) {
	if !entity.IsValidWithdrawalStatus(status) {
		return nil, fmt.Errorf("%w: unknown withdrawal status %q", errs.ErrValidation, status)
	}

	target := entity.WithdrawalStatus(status)
	if target == entity.WithdrawalRejected {
		return s.reject(ctx, id)
	}

	if err := s.withdrawals.UpdateStatus(ctx, id, target, txHash); err != nil {
		return nil, err
	}

	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Withdrawal resolved", map[string]any{
		"withdrawal_id": id,
		"status":        status,
	})
	return w, nil
}

// reject claims the rejection and refunds the merchant in one transaction
func (s *Service) reject(ctx context.Context, id string) (*entity.Withdrawal, error) {
	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin withdrawal rejection: %w", err)
	}

	if err := s.uow.GetWithdrawalRepository(txCtx).ClaimRejection(txCtx, id); err != nil {
		_ = s.uow.Rollback(txCtx)
		return nil, err
	}

	if err := s.uow.GetMerchantRepository(txCtx).RefundAvailable(txCtx, w.MerchantID, w.Amount); err != nil {
		_ = s.uow.Rollback(txCtx)
		return nil, err
	}

	if err := s.uow.Commit(txCtx); err != nil {
		return nil, err
	}

	w.Status = entity.WithdrawalRejected
	w.UpdatedAt = s.timeProvider.Now()

	s.logger.Info("Withdrawal rejected and refunded", map[string]any{
		"withdrawal_id": id,
		"merchant_id":   w.MerchantID,
		"refunded":      entity.FormatAmount(w.Amount),
	})
	return w, nil
}

// BatchResult reports the per-row outcomes of a batch resolution
type BatchResult struct {
	Resolved []string
	Failed   map[string]string
}

// ResolveBatch resolves each withdrawal independently through the same
// per-row path as Resolve. There is deliberately no bulk arithmetic: each
// rejection refunds its own row's amount under its own claim.
func (s *Service) ResolveBatch(ctx context.Context, ids []string, status, txHash string) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no withdrawal ids given", errs.ErrValidation)
	}
	if !entity.IsValidWithdrawalStatus(status) {
		return nil, fmt.Errorf("%w: unknown withdrawal status %q", errs.ErrValidation, status)
	}

	result := &BatchResult{Failed: make(map[string]string)}
	for _, id := range ids {
		if _, err := s.Resolve(ctx, id, status, txHash); err != nil {
			result.Failed[id] = err.Error()
			continue
		}
		result.Resolved = append(result.Resolved, id)
	}

	s.logger.Info("Withdrawal batch resolved", map[string]any{
		"requested": len(ids),
		"resolved":  len(result.Resolved),
		"failed":    len(result.Failed),
		"status":    status,
	})
	return result, nil
}
