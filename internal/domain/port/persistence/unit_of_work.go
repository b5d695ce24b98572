package persistence

import (
	"context"
)

// UnitOfWork defines an interface for coordinating repository operations
// inside one durable database transaction. Settlement crediting, withdrawal
// debits and rejection refunds all require their guard and their balance
// mutation to commit or roll back together.
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// GetMerchantRepository returns a merchant repository bound to the current transaction
	GetMerchantRepository(ctx context.Context) MerchantRepository

	// GetInvoiceRepository returns an invoice repository bound to the current transaction
	GetInvoiceRepository(ctx context.Context) InvoiceRepository

	// GetTransactionRepository returns a transaction repository bound to the current transaction
	GetTransactionRepository(ctx context.Context) TransactionRepository

	// GetWithdrawalRepository returns a withdrawal repository bound to the current transaction
	GetWithdrawalRepository(ctx context.Context) WithdrawalRepository

	// GetCustomerRepository returns a customer repository bound to the current transaction
	GetCustomerRepository(ctx context.Context) CustomerRepository
}
