package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer represents the database model for merchant-owned sub-ledger accounts
type Customer struct {
	ID         string          `gorm:"primaryKey;size:64"`
	MerchantID string          `gorm:"not null;index;size:64"`
	Balance    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`

	Merchant Merchant `gorm:"foreignKey:MerchantID;references:ID"`
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}
