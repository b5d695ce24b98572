package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/domain/port/gateway"
)

// DefaultHosts is the prioritized regional host list. The first host that
// answers wins; later entries only matter when earlier ones are unreachable.
var DefaultHosts = []string{
	"api.binance.com",
	"api1.binance.com",
	"api2.binance.com",
	"api3.binance.com",
	"api-gpro.binance.com",
}

const (
	payTransactionsPath = "/sapi/v1/pay/transactions"
	recvWindowMillis    = 5000
	pageLimit           = 100
)

// Upstream error codes that we classify into domain sentinels
const (
	codeInvalidAPIKey = -2015
	codeBadAPIKeyFmt  = -1022
	codeTimestampSkew = -1021
)

// Config holds the exchange client configuration
type Config struct {
	Hosts          []string
	PerHostTimeout time.Duration
}

// Client queries the Binance personal pay-transaction history with
// merchant-supplied credentials.
type Client struct {
	hosts          []string
	perHostTimeout time.Duration
	httpClient     *http.Client
	timeProvider   coreport.TimeProvider
	logger         coreport.Logger
}

// NewClient creates an exchange client
func NewClient(cfg Config, timeProvider coreport.TimeProvider, logger coreport.Logger) *Client {
	hosts := cfg.Hosts
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}
	timeout := cfg.PerHostTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		hosts:          hosts,
		perHostTimeout: timeout,
		httpClient:     &http.Client{},
		timeProvider:   timeProvider,
		logger:         logger,
	}
}

type payTransaction struct {
	TransactionID   string          `json:"transactionId"`
	OrderID         string          `json:"orderId"`
	OrderType       string          `json:"orderType"`
	TransactionType string          `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	FundsDetail     []fundsDetail   `json:"fundsDetail"`
	Note            string          `json:"note"`
	Remark          string          `json:"remark"`
	Status          string          `json:"status"`
	TransactionTime int64           `json:"transactionTime"`
}

// fundsDetail is the per-asset breakdown of a pay transfer. Some history
// entries report the amount only here, not at the top level.
type fundsDetail struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type payTransactionsResponse struct {
	// Success responses carry code as the string "000000", error responses
	// as a bare negative integer, so this cannot bind to a single JSON type.
	Code    json.RawMessage  `json:"code"`
	Message string           `json:"message"`
	Msg     string           `json:"msg"`
	Data    []payTransaction `json:"data"`
}

// ListPayTransactions returns transfers within the window ending now. Each
// candidate host gets its own timeout; the first answer wins. Credential and
// clock errors abort the fan-out since every host would reject the same way.
func (c *Client) ListPayTransactions(ctx context.Context, creds gateway.ExchangeCredentials, window time.Duration) ([]gateway.PayTransfer, error) {
	if creds.APIKey == "" || creds.SecretKey == "" {
		return nil, errs.ErrInvalidCredentials
	}

	query := c.signedQuery(creds.SecretKey, window)

	var lastErr error
	for _, host := range c.hosts {
		transfers, err := c.queryHost(ctx, host, creds.APIKey, query)
		if err == nil {
			return transfers, nil
		}

		if isTerminalUpstreamError(err) {
			return nil, err
		}

		c.logger.Warn("Exchange host failed, trying next", map[string]any{
			"host":  host,
			"error": err.Error(),
		})
		lastErr = err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no exchange hosts configured", errs.ErrUpstream)
	}
	return nil, lastErr
}

// signedQuery builds the canonical query string and appends its HMAC-SHA256
// signature. The signature covers the exact byte sequence sent on the wire.
func (c *Client) signedQuery(secretKey string, window time.Duration) string {
	now := c.timeProvider.Now()
	end := now.UnixMilli()
	start := now.Add(-window).UnixMilli()

	query := fmt.Sprintf("timestamp=%d&startTime=%d&endTime=%d&limit=%d&recvWindow=%d",
		end, start, end, pageLimit, recvWindowMillis)

	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(query))
	signature := hex.EncodeToString(mac.Sum(nil))

	return query + "&signature=" + url.QueryEscape(signature)
}

func (c *Client) queryHost(ctx context.Context, host, apiKey, query string) ([]gateway.PayTransfer, error) {
	hostCtx, cancel := context.WithTimeout(ctx, c.perHostTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("https://%s%s?%s", host, payTransactionsPath, query)
	req, err := http.NewRequestWithContext(hostCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrUpstream, err.Error())
	}
	req.Header.Set("X-MBX-APIKEY", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s unreachable: %s", errs.ErrUpstream, host, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response from %s: %s", errs.ErrUpstream, host, err.Error())
	}

	var parsed payTransactionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response from %s", errs.ErrUpstream, host)
	}

	if upstreamCode, isErr := errorCode(parsed.Code); isErr || resp.StatusCode != http.StatusOK {
		return nil, classify(host, upstreamCode, firstNonEmpty(parsed.Msg, parsed.Message))
	}

	transfers := make([]gateway.PayTransfer, 0, len(parsed.Data))
	for _, t := range parsed.Data {
		status := t.Status
		if status == "" {
			// The pay history only returns settled entries.
			status = "SUCCESS"
		}
		amount, currency := transferAmount(t)
		transfers = append(transfers, gateway.PayTransfer{
			TransactionID:   t.TransactionID,
			OrderID:         t.OrderID,
			OrderType:       t.OrderType,
			TransactionType: t.TransactionType,
			Amount:          amount,
			Currency:        currency,
			Note:            t.Note,
			Remark:          t.Remark,
			Status:          status,
			CreateTime:      time.UnixMilli(t.TransactionTime),
		})
	}

	c.logger.Debug("Exchange history fetched", map[string]any{
		"host":      host,
		"transfers": len(transfers),
	})
	return transfers, nil
}

// errorCode reports whether the response carries a negative upstream error
// code. Success responses use "000000", errors use negative integers, and
// either form may arrive quoted or bare.
func errorCode(raw json.RawMessage) (int, bool) {
	code := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, false
	}
	return n, n < 0
}

// transferAmount prefers the fundsDetail breakdown over the top-level
// amount; some history entries carry the value only there.
func transferAmount(t payTransaction) (decimal.Decimal, string) {
	for _, d := range t.FundsDetail {
		if !d.Amount.IsZero() {
			currency := d.Currency
			if currency == "" {
				currency = t.Currency
			}
			return d.Amount, currency
		}
	}
	return t.Amount, t.Currency
}

// classify maps an upstream error code to a domain sentinel
func classify(host string, upstreamCode int, message string) error {
	switch upstreamCode {
	case codeInvalidAPIKey, codeBadAPIKeyFmt:
		return errs.NewExchangeError(host, upstreamCode, message, errs.ErrInvalidCredentials)
	case codeTimestampSkew:
		return errs.NewExchangeError(host, upstreamCode, message, errs.ErrClockSkew)
	default:
		return errs.NewExchangeError(host, upstreamCode, message, errs.ErrUpstream)
	}
}

// isTerminalUpstreamError reports whether retrying another host is pointless
func isTerminalUpstreamError(err error) bool {
	return errors.Is(err, errs.ErrInvalidCredentials) || errors.Is(err, errs.ErrClockSkew)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
