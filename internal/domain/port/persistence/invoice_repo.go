package persistence

import (
	"context"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
)

// InvoiceRepository defines essential methods to interact with invoice data
type InvoiceRepository interface {
	// Create saves a new pending invoice
	//
	// Possible errors:
	// - ErrConstraintViolation: If invoice data violates a constraint
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, invoice *entity.Invoice) error

	// GetByID retrieves an invoice by its prefixed identifier
	//
	// Possible errors:
	// - ErrInvoiceNotFound: If invoice with the given ID doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)

	// MarkCompleted flips the invoice to COMPLETED. The settlement claim on
	// the paired transaction has already serialized callers, so this is a
	// plain status write; it is still conditioned on the current status as
	// defense against direct invocation.
	MarkCompleted(ctx context.Context, id string) error
}
