package database

import (
	"errors"
	"fmt"
	"strings"

	domainErr "github.com/soltio/crypto-gateway/internal/domain/error"
	"gorm.io/gorm"
)

// EntityType represents the type of entity for errors mapping
type EntityType string

const (
	// EntityTypeMerchant represents the merchant entity
	EntityTypeMerchant EntityType = "merchant"
	// EntityTypeInvoice represents the invoice entity
	EntityTypeInvoice EntityType = "invoice"
	// EntityTypeTransaction represents the settlement transaction entity
	EntityTypeTransaction EntityType = "transaction"
	// EntityTypeWithdrawal represents the withdrawal entity
	EntityTypeWithdrawal EntityType = "withdrawal"
	// EntityTypeCustomer represents the sub-ledger customer entity
	EntityTypeCustomer EntityType = "customer"
)

// ErrorMapper maps database errors to domain errors
type ErrorMapper struct{}

// NewErrorMapper creates a new ErrorMapper
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError maps a database error to a domain error
func (m *ErrorMapper) MapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Check for common GORM errors
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr.ErrNotFound
	}

	// Check for PostgreSQL specific errors
	errMsg := strings.ToLower(err.Error())

	switch {
	// Transient concurrency failures; callers retry the whole unit of work
	case strings.Contains(errMsg, "deadlock") ||
		strings.Contains(errMsg, "serialization") ||
		strings.Contains(errMsg, "lock timeout"):
		return fmt.Errorf("%w: %s hit a concurrency conflict", domainErr.ErrDatabaseConnection, operation)

	// Duplicate key errors
	case strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint"):
		return domainErr.ErrConstraintViolation

	// Constraint violations
	case strings.Contains(errMsg, "check constraint") ||
		strings.Contains(errMsg, "foreign key constraint"):
		return domainErr.ErrConstraintViolation

	// Connection issues
	case strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no connection") ||
		strings.Contains(errMsg, "connection reset"):
		return domainErr.ErrDatabaseConnection

	// Timeout errors
	case strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded"):
		return fmt.Errorf("%w: %s operation timed out", domainErr.ErrDatabaseConnection, operation)

	// Default error
	default:
		return domainErr.ErrInternalServer
	}
}

// MapEntityNotFoundError maps database errors to specific entity not found errors
func (m *ErrorMapper) MapEntityNotFoundError(err error, entityType EntityType) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		switch entityType {
		case EntityTypeMerchant:
			return domainErr.ErrMerchantNotFound
		case EntityTypeInvoice:
			return domainErr.ErrInvoiceNotFound
		case EntityTypeTransaction:
			return domainErr.ErrTransactionNotFound
		case EntityTypeWithdrawal:
			return domainErr.ErrWithdrawalNotFound
		default:
			return domainErr.ErrNotFound
		}
	}

	return m.MapError(err, string(entityType))
}

// MapMerchantNotFoundError maps database errors to merchant not found errors
func (m *ErrorMapper) MapMerchantNotFoundError(err error) error {
	return m.MapEntityNotFoundError(err, EntityTypeMerchant)
}

// MapInvoiceNotFoundError maps database errors to invoice not found errors
func (m *ErrorMapper) MapInvoiceNotFoundError(err error) error {
	return m.MapEntityNotFoundError(err, EntityTypeInvoice)
}

// MapTransactionNotFoundError maps database errors to transaction not found errors
func (m *ErrorMapper) MapTransactionNotFoundError(err error) error {
	return m.MapEntityNotFoundError(err, EntityTypeTransaction)
}

// MapWithdrawalNotFoundError maps database errors to withdrawal not found errors
func (m *ErrorMapper) MapWithdrawalNotFoundError(err error) error {
	return m.MapEntityNotFoundError(err, EntityTypeWithdrawal)
}
