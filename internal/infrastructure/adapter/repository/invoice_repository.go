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

// InvoiceRepository implements the invoice persistence port using GORM
type InvoiceRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewInvoiceRepository creates a new InvoiceRepository instance
func NewInvoiceRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *InvoiceRepository) modelToEntity(m *model.Invoice) *entity.Invoice {
	return &entity.Invoice{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		Amount:     m.Amount,
		Currency:   m.Currency,
		Status:     entity.InvoiceStatus(m.Status),
		Intent: entity.SettlementIntent{
			Kind:       entity.IntentKind(m.IntentKind),
			PlanID:     m.IntentPlanID,
			CustomerID: m.IntentCustomerID,
		},
		OrderID:          m.OrderID,
		OrderDescription: m.OrderDescription,
		IsTestMode:       m.IsTestMode,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// handleDatabaseError standardizes database error handling
func (r *InvoiceRepository) handleDatabaseError(operation string, err error, invoiceID string) error {
	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"invoice_id": invoiceID,
		"error":      err.Error(),
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrInvoiceNotFound
	}
	if r.errorClassifier.IsDuplicateKeyError(err) || r.errorClassifier.IsConstraintError(err) {
		return errs.ErrConstraintViolation
	}
	return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
}

// Create saves a new pending invoice
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	m := model.Invoice{
		ID:               invoice.ID,
		MerchantID:       invoice.MerchantID,
		Amount:           invoice.Amount,
		Currency:         invoice.Currency,
		Status:           string(invoice.Status),
		IntentKind:       string(invoice.Intent.Kind),
		IntentPlanID:     invoice.Intent.PlanID,
		IntentCustomerID: invoice.Intent.CustomerID,
		OrderID:          invoice.OrderID,
		OrderDescription: invoice.OrderDescription,
		IsTestMode:       invoice.IsTestMode,
		CreatedAt:        invoice.CreatedAt,
		UpdatedAt:        invoice.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		return r.handleDatabaseError("creating invoice", result.Error, invoice.ID)
	}

	r.logger.Debug("Invoice persisted", map[string]any{
		"invoice_id": invoice.ID,
	})
	return nil
}

// GetByID retrieves an invoice by its prefixed identifier
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	var m model.Invoice
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting invoice", result.Error, id)
	}
	return r.modelToEntity(&m), nil
}

// MarkCompleted flips the invoice to COMPLETED. Conditioned on the current
// status as defense against direct invocation outside the claim pipeline.
func (r *InvoiceRepository) MarkCompleted(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("id = ? AND status = ?", id, string(entity.InvoicePending)).
		Updates(map[string]interface{}{
			"status":     string(entity.InvoiceCompleted),
			"updated_at": r.timeProvider.Now(),
		})

	if result.Error != nil {
		return r.handleDatabaseError("completing invoice", result.Error, id)
	}
	if result.RowsAffected == 0 {
		// Row missing or already completed; distinguish for the caller.
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Invoice{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return r.handleDatabaseError("checking invoice", err, id)
		}
		if count == 0 {
			return errs.ErrInvoiceNotFound
		}
	}
	return nil
}
