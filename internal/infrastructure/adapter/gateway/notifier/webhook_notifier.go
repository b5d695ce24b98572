package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/domain/port/gateway"
)

// SignatureHeader carries the HMAC-SHA512 of the delivered body, computed
// with the merchant's webhook secret. Merchants verify it the same way.
const SignatureHeader = "x-soltio-signature"

// WebhookNotifier delivers settlement notifications to merchant endpoints.
// Delivery runs in its own goroutine and never reports failure to the caller;
// a merchant outage must not affect settlement.
type WebhookNotifier struct {
	httpClient *http.Client
	cipher     coreport.SecretCipher
	logger     coreport.Logger
}

// NewWebhookNotifier creates a merchant webhook notifier
func NewWebhookNotifier(timeout time.Duration, cipher coreport.SecretCipher, logger coreport.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		httpClient: &http.Client{Timeout: timeout},
		cipher:     cipher,
		logger:     logger,
	}
}

// Notify signs the payload and posts it to the merchant's endpoint.
// Fire-and-forget; returns immediately.
func (n *WebhookNotifier) Notify(ctx context.Context, webhookURL, webhookSecretEnc string, notification gateway.SettlementNotification) {
	if webhookURL == "" {
		return
	}

	go n.deliver(webhookURL, webhookSecretEnc, notification)
}

// deliver runs detached from the settlement request; it uses its own context
// so an already-answered HTTP request cannot cancel the delivery.
func (n *WebhookNotifier) deliver(webhookURL, webhookSecretEnc string, notification gateway.SettlementNotification) {
	ctx, cancel := context.WithTimeout(context.Background(), n.httpClient.Timeout)
	defer cancel()

	body, err := json.Marshal(notification)
	if err != nil {
		n.logger.Error("Failed to encode merchant notification", map[string]any{
			"platform_tx_id": notification.Payment.PlatformTxID,
			"error":          err.Error(),
		})
		return
	}

	secret, err := n.cipher.Decrypt(webhookSecretEnc)
	if err != nil {
		n.logger.Error("Failed to decrypt webhook secret", map[string]any{
			"platform_tx_id": notification.Payment.PlatformTxID,
			"error":          err.Error(),
		})
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("Failed to build merchant notification request", map[string]any{
			"platform_tx_id": notification.Payment.PlatformTxID,
			"error":          err.Error(),
		})
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, sign(secret, body))

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("Merchant notification delivery failed", map[string]any{
			"platform_tx_id": notification.Payment.PlatformTxID,
			"error":          err.Error(),
		})
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("Merchant notification rejected", map[string]any{
			"platform_tx_id": notification.Payment.PlatformTxID,
			"status":         resp.StatusCode,
		})
		return
	}

	n.logger.Info("Merchant notification delivered", map[string]any{
		"platform_tx_id": notification.Payment.PlatformTxID,
	})
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
