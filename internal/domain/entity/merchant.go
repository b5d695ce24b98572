package entity

import (
	"time"

	"github.com/shopspring/decimal"

	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
)

// Merchant plans
const (
	PlanFree    = "FREE"
	PlanStarter = "STARTER"
	PlanPro     = "PRO"
)

// Merchant represents a merchant account holding settled funds.
// Balance fields are mutated exactly once per settlement and once per
// withdrawal lifecycle event; every mutation goes through a guarded
// conditional update in the repository layer.
type Merchant struct {
	ID               string
	Email            string
	Name             string
	BrandName        string
	BrandLogoURL     string
	ThemeBgColor     string
	Plan             string
	AvailableBalance decimal.Decimal
	PendingBalance   decimal.Decimal
	TotalIncome      decimal.Decimal
	WebhookURL       string
	WebhookSecretEnc string // AES-GCM ciphertext, decrypted only at dispatch time
	BinancePayID     string
	BinanceAPIKeyEnc string
	BinanceSecretEnc string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewMerchant creates a merchant with zeroed balances
func NewMerchant(id, email, name string, timeProvider coreport.TimeProvider) (*Merchant, error) {
	if id == "" {
		return nil, errs.ErrValidation
	}

	now := timeProvider.Now()
	return &Merchant{
		ID:               id,
		Email:            email,
		Name:             name,
		Plan:             PlanFree,
		AvailableBalance: decimal.Zero,
		PendingBalance:   decimal.Zero,
		TotalIncome:      decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// HasDirectTransferConfig reports whether the merchant can receive
// direct-transfer payments at all (a receiving Pay ID is configured).
func (m *Merchant) HasDirectTransferConfig() bool {
	return m.BinancePayID != ""
}

// HasExchangeCredentials reports whether the merchant stored exchange API
// keys, required for automatic poll-path verification.
func (m *Merchant) HasExchangeCredentials() bool {
	return m.BinanceAPIKeyEnc != "" && m.BinanceSecretEnc != ""
}

// HasWebhook reports whether settlement notifications can be delivered.
func (m *Merchant) HasWebhook() bool {
	return m.WebhookURL != ""
}

// DisplayName returns the name shown on the hosted checkout page.
func (m *Merchant) DisplayName() string {
	if m.BrandName != "" {
		return m.BrandName
	}
	if m.Name != "" {
		return m.Name
	}
	return "Merchant"
}

// CanWithdraw checks the available balance against a requested amount.
// The authoritative check happens in the repository's conditional debit;
// this is only an early validation for friendlier errors.
func (m *Merchant) CanWithdraw(amount decimal.Decimal) bool {
	return amount.IsPositive() && m.AvailableBalance.GreaterThanOrEqual(amount)
}

// APIKey authenticates merchant calls to the invoice creation API.
type APIKey struct {
	Key        string
	MerchantID string
	Active     bool
	CreatedAt  time.Time
}
