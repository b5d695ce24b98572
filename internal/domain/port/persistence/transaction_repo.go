package persistence

import (
	"context"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
)

// TransactionRepository defines essential methods to interact with settlement records
type TransactionRepository interface {
	// Create saves a new pending transaction
	//
	// Possible errors:
	// - ErrConstraintViolation: If transaction data violates a constraint
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, transaction *entity.Transaction) error

	// Update persists rail coordinates and fee fields on an existing transaction
	//
	// Possible errors:
	// - ErrTransactionNotFound: If transaction with the given ID doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, transaction *entity.Transaction) error

	// GetByID retrieves a transaction by its platform identifier
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)

	// GetByInvoiceID retrieves the transaction paired with an invoice
	//
	// Possible errors:
	// - ErrTransactionNotFound: If no transaction is linked to the invoice
	GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.Transaction, error)

	// FindPendingByProviderTxID locates the pending transaction carrying the
	// external rail reference. Used by the webhook path to resolve inbound
	// confirmations.
	//
	// Possible errors:
	// - ErrTransactionNotFound: If no pending transaction matches
	FindPendingByProviderTxID(ctx context.Context, providerTxID string) (*entity.Transaction, error)

	// ClaimForSettlement performs the exactly-once settlement claim: a single
	// conditional update "SET status = SUCCESS WHERE id = ? AND status =
	// PENDING" whose affected-row count decides ownership. Exactly one
	// concurrent caller observes nil; all others get ErrAlreadySettled.
	//
	// Possible errors:
	// - ErrAlreadySettled: If a concurrent caller already claimed the row
	// - ErrDatabaseConnection: If database connection fails
	ClaimForSettlement(ctx context.Context, transactionID string) error
}
