package migration

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

const (
	// CurrentSchemaVersion represents the current database schema version
	CurrentSchemaVersion = "1.0.0"
)

// MigrationManager manages database migrations
type MigrationManager struct {
	db               *gorm.DB
	logger           coreport.Logger
	timeProvider     coreport.TimeProvider
	advancedIndexMgr *AdvancedIndexManager
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger) *MigrationManager {
	return &MigrationManager{
		db:               db,
		logger:           logger,
		advancedIndexMgr: NewAdvancedIndexManager(db, logger),
	}
}

// NewMigrationManagerWithTimeProvider creates a new migration manager with time provider
func NewMigrationManagerWithTimeProvider(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *MigrationManager {
	return &MigrationManager{
		db:               db,
		logger:           logger,
		timeProvider:     timeProvider,
		advancedIndexMgr: NewAdvancedIndexManager(db, logger),
	}
}

// MigrateAll performs all migrations
func (m *MigrationManager) MigrateAll() error {
	m.logger.Info("Starting database migrations", map[string]any{
		"target_version": CurrentSchemaVersion,
	})

	// Create migration version table first
	if err := m.db.AutoMigrate(&model.MigrationVersion{}); err != nil {
		m.logger.Error("Failed to create migration version table", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	// Check current version
	currentVersion, err := m.GetCurrentVersion(context.Background())
	if err != nil {
		m.logger.Error("Failed to check current schema version", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if currentVersion == CurrentSchemaVersion {
		m.logger.Info("Database already at target version, skipping migration", map[string]any{
			"version": currentVersion,
		})
		return nil
	}

	m.logger.Info("Current database version", map[string]any{
		"version": currentVersion,
	})

	// Auto-migrate models
	if err := m.autoMigrateModels(); err != nil {
		m.logger.Error("Failed to auto-migrate models", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	// Create basic indexes
	if err := m.createIndexes(); err != nil {
		m.logger.Error("Failed to create indexes", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	// Create advanced PostgreSQL indexes for better performance
	if err := m.createAdvancedIndexes(); err != nil {
		m.logger.Error("Failed to create advanced indexes", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	// Apply performance tweaks
	if err := m.applyPerformanceTweaks(); err != nil {
		m.logger.Error("Failed to apply performance tweaks", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	// Update migration version
	if err := m.setVersion(context.Background(), CurrentSchemaVersion, "Full schema migration"); err != nil {
		m.logger.Error("Failed to update schema version", map[string]any{
			"error":   err.Error(),
			"version": CurrentSchemaVersion,
		})
		return err
	}

	m.logger.Info("Database migrations completed successfully", map[string]any{
		"version": CurrentSchemaVersion,
	})
	return nil
}

// GetCurrentVersion gets the current migration version
func (m *MigrationManager) GetCurrentVersion(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var version model.MigrationVersion
	result := m.db.WithContext(ctx).Order("applied_at desc").First(&version)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil // No version found
		}
		return "", result.Error
	}

	return version.Version, nil
}

// setVersion records a new migration version
func (m *MigrationManager) setVersion(ctx context.Context, version string, details string) error {
	var appliedAt time.Time
	if m.timeProvider != nil {
		appliedAt = m.timeProvider.Now()
	} else {
		appliedAt = time.Now()
	}

	migrationVersion := model.MigrationVersion{
		Version:   version,
		AppliedAt: appliedAt,
		Details:   details,
	}

	result := m.db.WithContext(ctx).Create(&migrationVersion)
	return result.Error
}

// autoMigrateModels auto-migrates database models
func (m *MigrationManager) autoMigrateModels() error {
	m.logger.Info("Auto-migrating database models", nil)

	// Auto-migrate all models
	return m.db.AutoMigrate(
		&model.Merchant{},
		&model.APIKey{},
		&model.Customer{},
		&model.Invoice{},
		&model.Transaction{},
		&model.Withdrawal{},
	)
}

// createIndexes creates basic database indexes
func (m *MigrationManager) createIndexes() error {
	m.logger.Info("Creating database indexes", nil)

	// One settlement record per invoice
	if err := m.db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_invoice_id_unique ON transactions (invoice_id)").Error; err != nil {
		return err
	}

	// Webhook lookup path: provider reference + status
	if err := m.db.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_provider_tx_id ON transactions (provider_tx_id)").Error; err != nil {
		return err
	}

	// Merchant dashboards list invoices and withdrawals by owner
	if err := m.db.Exec("CREATE INDEX IF NOT EXISTS idx_invoices_merchant_id ON invoices (merchant_id)").Error; err != nil {
		return err
	}
	if err := m.db.Exec("CREATE INDEX IF NOT EXISTS idx_withdrawals_merchant_id ON withdrawals (merchant_id)").Error; err != nil {
		return err
	}

	return nil
}

// createAdvancedIndexes creates advanced PostgreSQL indexes
func (m *MigrationManager) createAdvancedIndexes() error {
	return m.advancedIndexMgr.CreateAdvancedIndexes()
}

// applyPerformanceTweaks applies PostgreSQL performance tweaks
func (m *MigrationManager) applyPerformanceTweaks() error {
	return m.advancedIndexMgr.CreatePerformanceTweaks()
}

// SeedDevelopmentData inserts a development merchant with a known API key so
// the checkout flow works on a fresh database. No-op when the merchant exists.
func (m *MigrationManager) SeedDevelopmentData(ctx context.Context) error {
	var count int64
	if err := m.db.WithContext(ctx).Model(&model.Merchant{}).
		Where("id = ?", "dev-merchant").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	if m.timeProvider != nil {
		now = m.timeProvider.Now()
	}

	merchant := model.Merchant{
		ID:               "dev-merchant",
		Email:            "dev@example.com",
		Name:             "Development Merchant",
		Plan:             "FREE",
		AvailableBalance: decimal.Zero,
		PendingBalance:   decimal.Zero,
		TotalIncome:      decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := m.db.WithContext(ctx).Create(&merchant).Error; err != nil {
		return err
	}

	apiKey := model.APIKey{
		Key:        "dev-api-key",
		MerchantID: merchant.ID,
		Active:     true,
		CreatedAt:  now,
	}
	if err := m.db.WithContext(ctx).Create(&apiKey).Error; err != nil {
		return err
	}

	m.logger.Info("Development seed data created", map[string]any{
		"merchant_id": merchant.ID,
	})
	return nil
}
