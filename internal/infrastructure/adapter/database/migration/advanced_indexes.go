package migration

import (
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"gorm.io/gorm"
)

// AdvancedIndexManager manages PostgreSQL-specific advanced indexes
type AdvancedIndexManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewAdvancedIndexManager creates a new advanced index manager
func NewAdvancedIndexManager(db *gorm.DB, logger coreport.Logger) *AdvancedIndexManager {
	return &AdvancedIndexManager{
		db:     db,
		logger: logger,
	}
}

// CreateAdvancedIndexes creates advanced PostgreSQL indexes for better performance
func (m *AdvancedIndexManager) CreateAdvancedIndexes() error {
	m.logger.Info("Creating advanced PostgreSQL indexes", nil)

	// Partial index for the webhook settlement lookup: only pending rows are
	// ever matched by provider reference
	if err := m.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_pending_provider
		ON transactions (provider_tx_id)
		WHERE status = 'PENDING'
	`).Error; err != nil {
		m.logger.Error("Failed to create pending provider index", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	// Composite index for merchant settlement history queries
	if err := m.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_merchant_status
		ON transactions (merchant_id, status)
	`).Error; err != nil {
		m.logger.Error("Failed to create merchant_status composite index", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	// Partial index for open invoices, the hot set on the checkout path
	if err := m.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_invoices_pending
		ON invoices (merchant_id, created_at)
		WHERE status = 'PENDING'
	`).Error; err != nil {
		m.logger.Error("Failed to create pending invoices partial index", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	// Partial index for the operator's withdrawal review queue
	if err := m.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_withdrawals_pending
		ON withdrawals (created_at)
		WHERE status = 'PENDING'
	`).Error; err != nil {
		m.logger.Error("Failed to create pending withdrawals partial index", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	// BRIN index for created_at (more efficient for temporal data)
	if err := m.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_created_at_brin
		ON transactions USING BRIN (created_at)
		WITH (pages_per_range = 32)
	`).Error; err != nil {
		m.logger.Error("Failed to create BRIN index on created_at", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	m.logger.Info("Advanced PostgreSQL indexes created successfully", nil)
	return nil
}

// CreatePerformanceTweaks applies PostgreSQL performance tweaks
func (m *AdvancedIndexManager) CreatePerformanceTweaks() error {
	m.logger.Info("Applying PostgreSQL performance tweaks", nil)

	// Set fillfactor for transaction table to reduce page splits
	if err := m.db.Exec(`
		ALTER TABLE transactions SET (fillfactor = 90)
	`).Error; err != nil {
		m.logger.Warn("Failed to set fillfactor for transactions table", map[string]any{
			"error": err.Error(),
		})
		// Don't return error as this is not critical
	}

	// Set statistics target for better query planning
	if err := m.db.Exec(`
		ALTER TABLE transactions ALTER COLUMN merchant_id SET STATISTICS 1000
	`).Error; err != nil {
		m.logger.Warn("Failed to set statistics target for merchant_id", map[string]any{
			"error": err.Error(),
		})
		// Don't return error as this is not critical
	}

	m.logger.Info("PostgreSQL performance tweaks applied successfully", nil)
	return nil
}
