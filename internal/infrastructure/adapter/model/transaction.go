package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents the database model for settlement transactions
type Transaction struct {
	ID             string          `gorm:"primaryKey;size:64"`
	ProviderTxID   string          `gorm:"index;size:255"`
	InvoiceID      string          `gorm:"uniqueIndex;not null;size:64"`
	MerchantID     string          `gorm:"not null;index;size:64"`
	Amount         decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Currency       string          `gorm:"not null;size:10"`
	PayAddress     string          `gorm:"size:255"`
	PayAmount      decimal.Decimal `gorm:"type:numeric(18,8);not null;default:0"`
	PayCurrency    string          `gorm:"size:10"`
	FeePlatform    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	FeeProvider    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	ProfitPlatform decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	AmountMerchant decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	Status         string          `gorm:"not null;size:30;index"`
	IsTestMode     bool            `gorm:"not null;default:false"`
	CreatedAt      time.Time       `gorm:"not null"`
	ProcessedAt    *time.Time

	Invoice  Invoice  `gorm:"foreignKey:InvoiceID;references:ID"`
	Merchant Merchant `gorm:"foreignKey:MerchantID;references:ID"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}
