package gateway

import (
	"context"
)

// SettlementNotification is the payload delivered to a merchant's webhook
// endpoint after a settlement. Field names follow the published contract.
type SettlementNotification struct {
	Event   string              `json:"event"`
	Payment NotificationPayment `json:"payment"`
}

// NotificationPayment carries the settled payment's public fields
type NotificationPayment struct {
	PlatformTxID     string `json:"platformTxId"`
	Status           string `json:"status"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	NetSettled       string `json:"netSettled"`
	PaidCurrency     string `json:"paidCurrency"`
	PaidCryptoAmount string `json:"paidCryptoAmount"`
}

// MerchantNotifier delivers signed settlement notifications. Delivery is
// best-effort: implementations log failures and never return them into the
// settlement path.
type MerchantNotifier interface {
	// Notify signs the payload with the merchant's webhook secret and posts
	// it to the merchant's endpoint. Fire-and-forget; always returns quickly.
	Notify(ctx context.Context, webhookURL, webhookSecretEnc string, notification SettlementNotification)
}
