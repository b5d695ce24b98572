package nowpayments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/domain/port/gateway"
)

const defaultBaseURL = "https://api.nowpayments.io/v1"

// Config holds the processor client configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the NowPayments API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     coreport.Logger
}

// NewClient creates a processor client
func NewClient(cfg Config, logger coreport.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type createPaymentRequest struct {
	PriceAmount      decimal.Decimal `json:"price_amount"`
	PriceCurrency    string          `json:"price_currency"`
	PayCurrency      string          `json:"pay_currency"`
	OrderID          string          `json:"order_id"`
	OrderDescription string          `json:"order_description,omitempty"`
	IPNCallbackURL   string          `json:"ipn_callback_url,omitempty"`
}

type createPaymentResponse struct {
	PaymentID   json.Number     `json:"payment_id"`
	PayAddress  string          `json:"pay_address"`
	PayAmount   decimal.Decimal `json:"pay_amount"`
	PayCurrency string          `json:"pay_currency"`
	InvoiceURL  string          `json:"invoice_url"`
	Message     string          `json:"message"`
}

// CreatePayment registers a payment and returns the payer coordinates
func (c *Client) CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentDetails, error) {
	body, err := json.Marshal(createPaymentRequest{
		PriceAmount:      req.PriceAmount,
		PriceCurrency:    req.PriceCurrency,
		PayCurrency:      req.PayCurrency,
		OrderID:          req.OrderID,
		OrderDescription: req.OrderDescription,
		IPNCallbackURL:   req.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: cannot encode payment request", errs.ErrInternalServer)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrUpstream, err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Processor request failed", map[string]any{
			"order_id": req.OrderID,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrUpstream, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading processor response: %s", errs.ErrUpstream, err.Error())
	}

	var payment createPaymentResponse
	if err := json.Unmarshal(respBody, &payment); err != nil {
		return nil, fmt.Errorf("%w: malformed processor response", errs.ErrUpstream)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Processor rejected payment creation", map[string]any{
			"order_id": req.OrderID,
			"status":   resp.StatusCode,
			"message":  payment.Message,
		})
		return nil, fmt.Errorf("%w: processor returned status %d: %s",
			errs.ErrUpstream, resp.StatusCode, payment.Message)
	}

	c.logger.Info("Processor payment created", map[string]any{
		"order_id":     req.OrderID,
		"payment_id":   payment.PaymentID.String(),
		"pay_currency": payment.PayCurrency,
	})

	return &gateway.PaymentDetails{
		PaymentID:   payment.PaymentID.String(),
		PayAddress:  payment.PayAddress,
		PayAmount:   payment.PayAmount,
		PayCurrency: payment.PayCurrency,
		InvoiceURL:  payment.InvoiceURL,
	}, nil
}
