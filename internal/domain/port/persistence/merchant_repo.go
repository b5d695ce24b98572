package persistence

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
)

// MerchantRepository defines essential methods to interact with merchant data
type MerchantRepository interface {
	// GetByID retrieves a merchant by ID
	//
	// Possible errors:
	// - ErrMerchantNotFound: If merchant with specified ID doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id string) (*entity.Merchant, error)

	// GetByAPIKey resolves an active API key to its owning merchant
	//
	// Possible errors:
	// - ErrInvalidAPIKey: If the key is unknown or inactive
	// - ErrDatabaseConnection: If database connection fails
	GetByAPIKey(ctx context.Context, key string) (*entity.Merchant, error)

	// Create creates a new merchant
	Create(ctx context.Context, merchant *entity.Merchant) error

	// CreditSettlement atomically adds the settled net amount to both
	// availableBalance and totalIncome. Callers must hold the settlement
	// claim; this method performs no guard of its own.
	CreditSettlement(ctx context.Context, merchantID string, amount decimal.Decimal) error

	// DebitAvailable performs the guarded withdrawal debit as a single
	// conditional update: the decrement applies only where
	// available_balance >= amount.
	//
	// Possible errors:
	// - ErrInsufficientBalance: If the guard matched no row
	// - ErrDatabaseConnection: If database connection fails
	DebitAvailable(ctx context.Context, merchantID string, amount decimal.Decimal) error

	// RefundAvailable credits a rejected withdrawal's amount back.
	// Callers must hold the rejection claim on the withdrawal row.
	RefundAvailable(ctx context.Context, merchantID string, amount decimal.Decimal) error

	// UpgradePlan sets the merchant's plan; applied once per winning
	// settlement claim carrying a plan-upgrade intent
	UpgradePlan(ctx context.Context, merchantID, planID string) error
}

// CustomerRepository manages the merchant-owned sub-ledger accounts
type CustomerRepository interface {
	// GetByID retrieves a sub-ledger customer
	GetByID(ctx context.Context, id string) (*entity.Customer, error)

	// CreditBalance adds a settled deposit to the customer balance.
	// Callers must hold the settlement claim.
	CreditBalance(ctx context.Context, customerID string, amount decimal.Decimal) error
}
