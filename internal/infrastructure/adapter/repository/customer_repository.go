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

// CustomerRepository implements the sub-ledger customer persistence port
type CustomerRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewCustomerRepository creates a new CustomerRepository instance
func NewCustomerRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *CustomerRepository {
	return &CustomerRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// GetByID retrieves a sub-ledger customer
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	var m model.Customer
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		r.logger.Error("Database error when getting customer", map[string]any{
			"customer_id": id,
			"error":       result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return &entity.Customer{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		Balance:    m.Balance,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

// CreditBalance adds a settled deposit to the customer balance in one statement
func (r *CustomerRepository) CreditBalance(ctx context.Context, customerID string, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": r.timeProvider.Now(),
		})

	if result.Error != nil {
		r.logger.Error("Database error when crediting customer", map[string]any{
			"customer_id": customerID,
			"error":       result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}

	r.logger.Info("Customer balance credited", map[string]any{
		"customer_id": customerID,
		"amount":      amount.String(),
	})
	return nil
}
