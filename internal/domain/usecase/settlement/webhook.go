package settlement

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/domain/port/persistence"
	"github.com/soltio/crypto-gateway/internal/domain/usecase/fee"
)

// Outcome tells the HTTP layer how a webhook confirmation ended
type Outcome string

const (
	// OutcomeSettled means this call won the claim and credited the merchant
	OutcomeSettled Outcome = "settled"
	// OutcomeAlreadySettled means a concurrent caller won; acknowledge anyway
	OutcomeAlreadySettled Outcome = "already_settled"
	// OutcomeIgnored means the notification carried a non-terminal status
	OutcomeIgnored Outcome = "ignored"
)

// ipnPayload is the processor's payment notification body. Numbers arrive as
// json.Number so payment ids survive without float mangling.
type ipnPayload struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	ActuallyPaid  json.Number `json:"actually_paid"`
	PayCurrency   string      `json:"pay_currency"`
	OrderID       string      `json:"order_id"`
}

// WebhookConfirmer consumes processor payment notifications (IPN). Signature
// verification is mandatory and constant-time; only terminal statuses are
// processed, everything else is acknowledged and dropped.
type WebhookConfirmer struct {
	settler      *Settler
	transactions persistence.TransactionRepository
	fees         *fee.Calculator
	ipnSecret    string
	logger       coreport.Logger
}

// NewWebhookConfirmer creates the webhook settlement confirmer
func NewWebhookConfirmer(
	settler *Settler,
	transactions persistence.TransactionRepository,
	fees *fee.Calculator,
	ipnSecret string,
	logger coreport.Logger,
) *WebhookConfirmer {
	return &WebhookConfirmer{
		settler:      settler,
		transactions: transactions,
		fees:         fees,
		ipnSecret:    ipnSecret,
		logger:       logger,
	}
}

// Confirm verifies and processes one notification body.
//
// Possible errors:
// - ErrAuthenticity: If the signature is missing or does not match
// - ErrTransactionNotFound: If no pending transaction carries the payment id
// - ErrValidation: If the body is not valid JSON
func (c *WebhookConfirmer) Confirm(ctx context.Context, body []byte, signature string) (Outcome, error) {
	if err := c.verifySignature(body, signature); err != nil {
		c.logger.Warn("Rejected webhook with bad signature", map[string]any{
			"body_bytes": len(body),
		})
		return "", err
	}

	var payload ipnPayload
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: malformed notification body", errs.ErrValidation)
	}

	if !isTerminalPaymentStatus(payload.PaymentStatus) {
		c.logger.Info("Ignoring non-terminal payment notification", map[string]any{
			"payment_id":     payload.PaymentID.String(),
			"payment_status": payload.PaymentStatus,
		})
		return OutcomeIgnored, nil
	}

	txn, err := c.transactions.FindPendingByProviderTxID(ctx, payload.PaymentID.String())
	if err != nil {
		if errs.IsNotFoundError(err) {
			// Pending row absent: either unknown payment or a prior
			// notification already settled it.
			return "", errs.ErrTransactionNotFound
		}
		return "", err
	}

	if paid, perr := entity.ParseAmount(payload.ActuallyPaid.String()); perr == nil {
		txn.PayAmount = paid
	}
	if payload.PayCurrency != "" {
		txn.PayCurrency = payload.PayCurrency
	}
	if txn.AmountMerchant.IsZero() {
		// Rail initiation quotes fees; re-quote if this row never got them.
		txn.ApplyFees(c.fees.Quote(txn.Amount, entity.RailProcessor))
	}

	if err := c.settler.Settle(ctx, txn); err != nil {
		if errs.IsAlreadySettledError(err) {
			return OutcomeAlreadySettled, nil
		}
		return "", err
	}
	return OutcomeSettled, nil
}

// verifySignature recomputes HMAC-SHA512 over the payload with its top-level
// keys sorted, which is how the processor derives the signature it sends.
func (c *WebhookConfirmer) verifySignature(body []byte, signature string) error {
	if signature == "" || c.ipnSecret == "" {
		return errs.ErrAuthenticity
	}

	canonical, err := canonicalJSON(body)
	if err != nil {
		return fmt.Errorf("%w: malformed notification body", errs.ErrValidation)
	}

	mac := hmac.New(sha512.New, []byte(c.ipnSecret))
	mac.Write(canonical)
	expected := hex.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return errs.ErrAuthenticity
	}
	return nil
}

// canonicalJSON re-serializes a JSON object with its top-level keys in
// lexicographic order, leaving the values byte-for-byte as received.
func canonicalJSON(body []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// isTerminalPaymentStatus reports whether a processor status settles the
// invoice. partially_paid settles at face value; underpayment risk sits with
// the processor's own thresholds, not with us.
func isTerminalPaymentStatus(status string) bool {
	return status == "finished" || status == "partially_paid"
}
