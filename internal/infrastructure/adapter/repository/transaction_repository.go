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

// TransactionRepository implements the settlement-record persistence port
// using GORM. ClaimForSettlement is the concurrency primitive the whole
// settlement path rests on.
type TransactionRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *TransactionRepository) modelToEntity(m *model.Transaction) *entity.Transaction {
	return &entity.Transaction{
		ID:             m.ID,
		PlatformTxID:   m.ID,
		ProviderTxID:   m.ProviderTxID,
		InvoiceID:      m.InvoiceID,
		MerchantID:     m.MerchantID,
		Amount:         m.Amount,
		Currency:       m.Currency,
		PayAddress:     m.PayAddress,
		PayAmount:      m.PayAmount,
		PayCurrency:    m.PayCurrency,
		FeePlatform:    m.FeePlatform,
		FeeProvider:    m.FeeProvider,
		ProfitPlatform: m.ProfitPlatform,
		AmountMerchant: m.AmountMerchant,
		Status:         entity.TransactionStatus(m.Status),
		IsTestMode:     m.IsTestMode,
		CreatedAt:      m.CreatedAt,
		ProcessedAt:    m.ProcessedAt,
	}
}

// handleDatabaseError standardizes database error handling
func (r *TransactionRepository) handleDatabaseError(operation string, err error, transactionID string) error {
	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"transaction_id": transactionID,
		"error":          err.Error(),
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrTransactionNotFound
	}
	if r.errorClassifier.IsDuplicateKeyError(err) || r.errorClassifier.IsConstraintError(err) {
		return errs.ErrConstraintViolation
	}
	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// Create saves a new pending transaction
func (r *TransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	m := model.Transaction{
		ID:             transaction.ID,
		ProviderTxID:   transaction.ProviderTxID,
		InvoiceID:      transaction.InvoiceID,
		MerchantID:     transaction.MerchantID,
		Amount:         transaction.Amount,
		Currency:       transaction.Currency,
		PayAddress:     transaction.PayAddress,
		PayAmount:      transaction.PayAmount,
		PayCurrency:    transaction.PayCurrency,
		FeePlatform:    transaction.FeePlatform,
		FeeProvider:    transaction.FeeProvider,
		ProfitPlatform: transaction.ProfitPlatform,
		AmountMerchant: transaction.AmountMerchant,
		Status:         string(transaction.Status),
		IsTestMode:     transaction.IsTestMode,
		CreatedAt:      transaction.CreatedAt,
		ProcessedAt:    transaction.ProcessedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		return r.handleDatabaseError("creating transaction", result.Error, transaction.ID)
	}

	r.logger.Debug("Transaction persisted", map[string]any{
		"transaction_id": transaction.ID,
		"invoice_id":     transaction.InvoiceID,
	})
	return nil
}

// Update persists rail coordinates, fee fields and processing state. The
// status column is deliberately excluded: it only ever changes through
// ClaimForSettlement, except when this update runs inside a transaction that
// already won the claim and must persist the SUCCESS row fields together.
func (r *TransactionRepository) Update(ctx context.Context, transaction *entity.Transaction) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", transaction.ID).
		Updates(map[string]interface{}{
			"provider_tx_id":  transaction.ProviderTxID,
			"pay_address":     transaction.PayAddress,
			"pay_amount":      transaction.PayAmount,
			"pay_currency":    transaction.PayCurrency,
			"fee_platform":    transaction.FeePlatform,
			"fee_provider":    transaction.FeeProvider,
			"profit_platform": transaction.ProfitPlatform,
			"amount_merchant": transaction.AmountMerchant,
			"processed_at":    transaction.ProcessedAt,
		})

	if result.Error != nil {
		return r.handleDatabaseError("updating transaction", result.Error, transaction.ID)
	}
	if result.RowsAffected == 0 {
		return errs.ErrTransactionNotFound
	}
	return nil
}

// GetByID retrieves a transaction by its platform identifier
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	var m model.Transaction
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting transaction", result.Error, id)
	}
	return r.modelToEntity(&m), nil
}

// GetByInvoiceID retrieves the transaction paired with an invoice
func (r *TransactionRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.Transaction, error) {
	var m model.Transaction
	result := r.db.WithContext(ctx).First(&m, "invoice_id = ?", invoiceID)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting transaction by invoice", result.Error, invoiceID)
	}
	return r.modelToEntity(&m), nil
}

// FindPendingByProviderTxID locates the pending transaction carrying the
// external rail reference
func (r *TransactionRepository) FindPendingByProviderTxID(ctx context.Context, providerTxID string) (*entity.Transaction, error) {
	var m model.Transaction
	result := r.db.WithContext(ctx).
		First(&m, "provider_tx_id = ? AND status = ?", providerTxID, string(entity.TxPending))
	if result.Error != nil {
		return nil, r.handleDatabaseError("finding pending transaction", result.Error, providerTxID)
	}
	return r.modelToEntity(&m), nil
}

// ClaimForSettlement performs the exactly-once settlement claim. One
// conditional update; the affected-row count decides ownership. No
// read-then-write, no lock.
func (r *TransactionRepository) ClaimForSettlement(ctx context.Context, transactionID string) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND status = ?", transactionID, string(entity.TxPending)).
		Update("status", string(entity.TxSuccess))

	if result.Error != nil {
		return r.handleDatabaseError("claiming settlement", result.Error, transactionID)
	}
	if result.RowsAffected == 0 {
		r.logger.Debug("Settlement claim already taken", map[string]any{
			"transaction_id": transactionID,
		})
		return errs.ErrAlreadySettled
	}

	r.logger.Debug("Settlement claim won", map[string]any{
		"transaction_id": transactionID,
	})
	return nil
}
