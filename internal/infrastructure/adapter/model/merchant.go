package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Merchant represents the database model for merchants
type Merchant struct {
	ID               string          `gorm:"primaryKey;size:64"`
	Email            string          `gorm:"uniqueIndex;not null;size:255"`
	Name             string          `gorm:"not null;size:255"`
	BrandName        string          `gorm:"size:255"`
	BrandLogoURL     string          `gorm:"size:512"`
	ThemeBgColor     string          `gorm:"size:16"`
	Plan             string          `gorm:"not null;size:50;default:FREE"`
	AvailableBalance decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	PendingBalance   decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	TotalIncome      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	WebhookURL       string          `gorm:"size:512"`
	WebhookSecretEnc string          `gorm:"type:text"`
	BinancePayID     string          `gorm:"size:64"`
	BinanceAPIKeyEnc string          `gorm:"type:text"`
	BinanceSecretEnc string          `gorm:"type:text"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName specifies the table name for Merchant
func (Merchant) TableName() string {
	return "merchants"
}
