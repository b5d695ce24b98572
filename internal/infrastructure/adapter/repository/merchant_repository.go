package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/model"
)

// MerchantRepository implements the merchant persistence port using GORM.
// All balance mutations are single-statement updates; the guarded debit is
// the only place that checks available funds and it does so inside the
// statement itself.
type MerchantRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewMerchantRepository creates a new MerchantRepository instance
func NewMerchantRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *MerchantRepository {
	return &MerchantRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *MerchantRepository) modelToEntity(m *model.Merchant) *entity.Merchant {
	return &entity.Merchant{
		ID:               m.ID,
		Email:            m.Email,
		Name:             m.Name,
		BrandName:        m.BrandName,
		BrandLogoURL:     m.BrandLogoURL,
		ThemeBgColor:     m.ThemeBgColor,
		Plan:             m.Plan,
		AvailableBalance: m.AvailableBalance,
		PendingBalance:   m.PendingBalance,
		TotalIncome:      m.TotalIncome,
		WebhookURL:       m.WebhookURL,
		WebhookSecretEnc: m.WebhookSecretEnc,
		BinancePayID:     m.BinancePayID,
		BinanceAPIKeyEnc: m.BinanceAPIKeyEnc,
		BinanceSecretEnc: m.BinanceSecretEnc,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// handleDatabaseError standardizes database error handling
func (r *MerchantRepository) handleDatabaseError(operation string, err error, merchantID string) error {
	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"merchant_id": merchantID,
		"error":       err.Error(),
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrMerchantNotFound
	}
	if r.errorClassifier.IsDuplicateKeyError(err) || r.errorClassifier.IsConstraintError(err) {
		return errs.ErrConstraintViolation
	}
	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// GetByID retrieves a merchant by ID
func (r *MerchantRepository) GetByID(ctx context.Context, id string) (*entity.Merchant, error) {
	var m model.Merchant
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting merchant", result.Error, id)
	}
	return r.modelToEntity(&m), nil
}

// GetByAPIKey resolves an active API key to its owning merchant
func (r *MerchantRepository) GetByAPIKey(ctx context.Context, key string) (*entity.Merchant, error) {
	var apiKey model.APIKey
	result := r.db.WithContext(ctx).First(&apiKey, "key = ? AND active = ?", key, true)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrInvalidAPIKey
		}
		return nil, r.handleDatabaseError("resolving API key", result.Error, "")
	}

	return r.GetByID(ctx, apiKey.MerchantID)
}

// Create creates a new merchant
func (r *MerchantRepository) Create(ctx context.Context, merchant *entity.Merchant) error {
	m := model.Merchant{
		ID:               merchant.ID,
		Email:            merchant.Email,
		Name:             merchant.Name,
		BrandName:        merchant.BrandName,
		BrandLogoURL:     merchant.BrandLogoURL,
		ThemeBgColor:     merchant.ThemeBgColor,
		Plan:             merchant.Plan,
		AvailableBalance: merchant.AvailableBalance,
		PendingBalance:   merchant.PendingBalance,
		TotalIncome:      merchant.TotalIncome,
		WebhookURL:       merchant.WebhookURL,
		WebhookSecretEnc: merchant.WebhookSecretEnc,
		BinancePayID:     merchant.BinancePayID,
		BinanceAPIKeyEnc: merchant.BinanceAPIKeyEnc,
		BinanceSecretEnc: merchant.BinanceSecretEnc,
		CreatedAt:        merchant.CreatedAt,
		UpdatedAt:        merchant.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		return r.handleDatabaseError("creating merchant", result.Error, merchant.ID)
	}

	r.logger.Info("Merchant created successfully", map[string]any{
		"merchant_id": merchant.ID,
	})
	return nil
}

// CreditSettlement atomically adds the settled net amount to both
// availableBalance and totalIncome in one statement.
func (r *MerchantRepository) CreditSettlement(ctx context.Context, merchantID string, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&model.Merchant{}).
		Where("id = ?", merchantID).
		Updates(map[string]interface{}{
			"available_balance": gorm.Expr("available_balance + ?", amount),
			"total_income":      gorm.Expr("total_income + ?", amount),
			"updated_at":        r.timeProvider.Now(),
		})

	if result.Error != nil {
		return r.handleDatabaseError("crediting settlement", result.Error, merchantID)
	}
	if result.RowsAffected == 0 {
		return errs.ErrMerchantNotFound
	}

	r.logger.Info("Merchant balance credited", map[string]any{
		"merchant_id": merchantID,
		"amount":      amount.String(),
	})
	return nil
}

// DebitAvailable performs the guarded withdrawal debit. The balance check
// lives in the WHERE clause so two concurrent withdrawals can never both
// succeed against one balance.
func (r *MerchantRepository) DebitAvailable(ctx context.Context, merchantID string, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&model.Merchant{}).
		Where("id = ? AND available_balance >= ?", merchantID, amount).
		Updates(map[string]interface{}{
			"available_balance": gorm.Expr("available_balance - ?", amount),
			"updated_at":        r.timeProvider.Now(),
		})

	if result.Error != nil {
		return r.handleDatabaseError("debiting balance", result.Error, merchantID)
	}
	if result.RowsAffected == 0 {
		// Guard matched no row: merchant missing or balance too low.
		merchant, err := r.GetByID(ctx, merchantID)
		if err != nil {
			return err
		}
		return errs.NewInsufficientBalanceError(merchantID,
			amount.String(), merchant.AvailableBalance.String())
	}

	r.logger.Info("Merchant balance debited", map[string]any{
		"merchant_id": merchantID,
		"amount":      amount.String(),
	})
	return nil
}

// RefundAvailable credits a rejected withdrawal's amount back
func (r *MerchantRepository) RefundAvailable(ctx context.Context, merchantID string, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&model.Merchant{}).
		Where("id = ?", merchantID).
		Updates(map[string]interface{}{
			"available_balance": gorm.Expr("available_balance + ?", amount),
			"updated_at":        r.timeProvider.Now(),
		})

	if result.Error != nil {
		return r.handleDatabaseError("refunding balance", result.Error, merchantID)
	}
	if result.RowsAffected == 0 {
		return errs.ErrMerchantNotFound
	}

	r.logger.Info("Merchant balance refunded", map[string]any{
		"merchant_id": merchantID,
		"amount":      amount.String(),
	})
	return nil
}

// UpgradePlan sets the merchant's plan
func (r *MerchantRepository) UpgradePlan(ctx context.Context, merchantID, planID string) error {
	result := r.db.WithContext(ctx).Model(&model.Merchant{}).
		Where("id = ?", merchantID).
		Updates(map[string]interface{}{
			"plan":       planID,
			"updated_at": r.timeProvider.Now(),
		})

	if result.Error != nil {
		return r.handleDatabaseError("upgrading plan", result.Error, merchantID)
	}
	if result.RowsAffected == 0 {
		return errs.ErrMerchantNotFound
	}

	r.logger.Info("Merchant plan upgraded", map[string]any{
		"merchant_id": merchantID,
		"plan":        planID,
	})
	return nil
}
