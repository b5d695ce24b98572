package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice represents the database model for invoices
type Invoice struct {
	ID               string          `gorm:"primaryKey;size:64"`
	MerchantID       string          `gorm:"not null;index;size:64"`
	Amount           decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Currency         string          `gorm:"not null;size:10"`
	Status           string          `gorm:"not null;size:20;index"`
	IntentKind       string          `gorm:"not null;size:30;default:PLAIN"`
	IntentPlanID     string          `gorm:"size:50"`
	IntentCustomerID string          `gorm:"size:64"`
	OrderID          string          `gorm:"size:255;index"`
	OrderDescription string          `gorm:"type:text"`
	IsTestMode       bool            `gorm:"not null;default:false"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`

	Merchant Merchant `gorm:"foreignKey:MerchantID;references:ID"`
}

// TableName specifies the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}
