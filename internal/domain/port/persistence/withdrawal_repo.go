package persistence

import (
	"context"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
)

// WithdrawalRepository defines essential methods to interact with withdrawal data
type WithdrawalRepository interface {
	// Create inserts a pending withdrawal. Must run inside the same unit of
	// work as the merchant balance debit.
	Create(ctx context.Context, withdrawal *entity.Withdrawal) error

	// GetByID retrieves a withdrawal by ID
	//
	// Possible errors:
	// - ErrWithdrawalNotFound: If withdrawal with the given ID doesn't exist
	GetByID(ctx context.Context, id string) (*entity.Withdrawal, error)

	// UpdateStatus flips the status (and optional txHash) unconditionally.
	// Used for APPROVED and COMPLETED, which carry no balance effect.
	UpdateStatus(ctx context.Context, id string, status entity.WithdrawalStatus, txHash string) error

	// ClaimRejection performs the exactly-once rejection claim: a conditional
	// update that flips a non-terminal withdrawal to REJECTED and reports
	// ownership via the affected-row count. The refund credit must only be
	// applied by the caller that observes nil.
	//
	// Possible errors:
	// - ErrDuplicateWithdrawalResolution: If the row was already terminal
	// - ErrWithdrawalNotFound: If withdrawal with the given ID doesn't exist
	ClaimRejection(ctx context.Context, id string) error
}
