package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/model"
)

// WithdrawalRepository implements the withdrawal persistence port using GORM
type WithdrawalRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewWithdrawalRepository creates a new WithdrawalRepository instance
func NewWithdrawalRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *WithdrawalRepository {
	return &WithdrawalRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *WithdrawalRepository) modelToEntity(m *model.Withdrawal) *entity.Withdrawal {
	return &entity.Withdrawal{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		Amount:     m.Amount,
		Currency:   m.Currency,
		Address:    m.Address,
		Status:     entity.WithdrawalStatus(m.Status),
		TxHash:     m.TxHash,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// handleDatabaseError standardizes database error handling
func (r *WithdrawalRepository) handleDatabaseError(operation string, err error, withdrawalID string) error {
	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"withdrawal_id": withdrawalID,
		"error":         err.Error(),
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrWithdrawalNotFound
	}
	if r.errorClassifier.IsDuplicateKeyError(err) || r.errorClassifier.IsConstraintError(err) {
		return errs.ErrConstraintViolation
	}
	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// Create inserts a pending withdrawal
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *entity.Withdrawal) error {
	m := model.Withdrawal{
		ID:         withdrawal.ID,
		MerchantID: withdrawal.MerchantID,
		Amount:     withdrawal.Amount,
		Currency:   withdrawal.Currency,
		Address:    withdrawal.Address,
		Status:     string(withdrawal.Status),
		TxHash:     withdrawal.TxHash,
		CreatedAt:  withdrawal.CreatedAt,
		UpdatedAt:  withdrawal.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		return r.handleDatabaseError("creating withdrawal", result.Error, withdrawal.ID)
	}

	r.logger.Debug("Withdrawal persisted", map[string]any{
		"withdrawal_id": withdrawal.ID,
	})
	return nil
}

// GetByID retrieves a withdrawal by ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*entity.Withdrawal, error) {
	var m model.Withdrawal
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting withdrawal", result.Error, id)
	}
	return r.modelToEntity(&m), nil
}

// UpdateStatus flips a non-terminal withdrawal to the target status (and
// optional txHash). REJECTED and COMPLETED rows never reopen: the conditional
// update is the guard, checked via the affected-row count, so a completed
// payout cannot be laundered back into a refundable state.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, id string, status entity.WithdrawalStatus, txHash string) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": r.timeProvider.Now(),
	}
	if txHash != "" {
		updates["tx_hash"] = txHash
	}

	result := r.db.WithContext(ctx).Model(&model.Withdrawal{}).
		Where("id = ? AND status NOT IN ?", id,
			[]string{string(entity.WithdrawalRejected), string(entity.WithdrawalCompleted)}).
		Updates(updates)

	if result.Error != nil {
		return r.handleDatabaseError("updating withdrawal", result.Error, id)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Withdrawal{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return r.handleDatabaseError("checking withdrawal", err, id)
		}
		if count == 0 {
			return errs.ErrWithdrawalNotFound
		}
		r.logger.Warn("Refused to reopen terminal withdrawal", map[string]any{
			"withdrawal_id": id,
			"target_status": string(status),
		})
		return errs.ErrDuplicateWithdrawalResolution
	}
	return nil
}

// ClaimRejection performs the exactly-once rejection claim: only a
// non-terminal withdrawal can flip to REJECTED, and only one caller observes
// the row change. The caller that wins applies the refund.
func (r *WithdrawalRepository) ClaimRejection(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&model.Withdrawal{}).
		Where("id = ? AND status NOT IN ?", id,
			[]string{string(entity.WithdrawalRejected), string(entity.WithdrawalCompleted)}).
		Updates(map[string]interface{}{
			"status":     string(entity.WithdrawalRejected),
			"updated_at": r.timeProvider.Now(),
		})

	if result.Error != nil {
		return r.handleDatabaseError("claiming rejection", result.Error, id)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Withdrawal{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return r.handleDatabaseError("checking withdrawal", err, id)
		}
		if count == 0 {
			return errs.ErrWithdrawalNotFound
		}
		r.logger.Warn("Rejection claim already taken", map[string]any{
			"withdrawal_id": id,
		})
		return errs.ErrDuplicateWithdrawalResolution
	}
	return nil
}
