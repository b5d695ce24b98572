package model

import (
	"time"
)

// APIKey represents the database model for merchant API keys
type APIKey struct {
	Key        string    `gorm:"primaryKey;size:128"`
	MerchantID string    `gorm:"not null;index;size:64"`
	Active     bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time `gorm:"not null"`

	Merchant Merchant `gorm:"foreignKey:MerchantID;references:ID"`
}

// TableName specifies the table name for APIKey
func (APIKey) TableName() string {
	return "api_keys"
}
