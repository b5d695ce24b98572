package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal represents the database model for merchant payout requests
type Withdrawal struct {
	ID         string          `gorm:"primaryKey;size:64"`
	MerchantID string          `gorm:"not null;index;size:64"`
	Amount     decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Currency   string          `gorm:"not null;size:10"`
	Address    string          `gorm:"not null;size:255"`
	Status     string          `gorm:"not null;size:20;index"`
	TxHash     string          `gorm:"size:255"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`

	Merchant Merchant `gorm:"foreignKey:MerchantID;references:ID"`
}

// TableName specifies the table name for Withdrawal
func (Withdrawal) TableName() string {
	return "withdrawals"
}
