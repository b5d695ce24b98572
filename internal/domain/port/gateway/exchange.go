package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PayTransfer is one entry of an exchange account's pay-transaction history
type PayTransfer struct {
	TransactionID   string
	OrderID         string
	OrderType       string // "C2C" for user-to-user transfers
	TransactionType string // "PAY" for pay transfers
	Amount          decimal.Decimal
	Currency        string
	Note            string
	Remark          string
	Status          string // SUCCESS / COMPLETED / ACCEPTED are terminal successes
	CreateTime      time.Time
}

// IsIncomingPeerTransfer reports whether the entry is a received peer payment
func (t PayTransfer) IsIncomingPeerTransfer() bool {
	return t.OrderType == "C2C" || t.TransactionType == "PAY"
}

// IsTerminalSuccess reports whether the transfer itself completed
func (t PayTransfer) IsTerminalSuccess() bool {
	switch t.Status {
	case "SUCCESS", "COMPLETED", "ACCEPTED":
		return true
	default:
		return false
	}
}

// MentionsReference reports whether the payer included the expected note text
func (t PayTransfer) MentionsReference(ref string) bool {
	if ref == "" {
		return true
	}
	return strings.Contains(t.Note, ref) || strings.Contains(t.Remark, ref)
}

// ExchangeCredentials are a merchant's own exchange API credentials,
// already decrypted by the caller.
type ExchangeCredentials struct {
	APIKey    string
	SecretKey string
}

// ExchangeClient queries an exchange's personal pay-transaction history.
// Implementations sign requests with the merchant's credentials and fan out
// over regional hosts, first success wins.
type ExchangeClient interface {
	// ListPayTransactions returns transfers within the window ending now
	//
	// Possible errors:
	// - ErrInvalidCredentials: If the exchange rejected the API key
	// - ErrClockSkew: If the exchange rejected the request timestamp
	// - ErrUpstream: If every candidate host failed for any other reason
	ListPayTransactions(ctx context.Context, creds ExchangeCredentials, window time.Duration) ([]PayTransfer, error)
}
