package nowpayments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	errs "github.com/soltio/crypto-gateway/internal/domain/error"
	"github.com/soltio/crypto-gateway/internal/domain/port/gateway"
	mcore "github.com/soltio/crypto-gateway/mocks/port/core"
)

func quietLogger() *mcore.MockLogger {
	logger := new(mcore.MockLogger)
	logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	logger.On("Info", mock.Anything, mock.Anything).Maybe()
	logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	logger.On("Error", mock.Anything, mock.Anything).Maybe()
	return logger
}

func paymentRequest() gateway.PaymentRequest {
	return gateway.PaymentRequest{
		PriceAmount:      decimal.RequireFromString("100.00"),
		PriceCurrency:    "USD",
		PayCurrency:      "usdttrc20",
		OrderID:          "SOLTIO-INV00001",
		OrderDescription: "Test order",
		CallbackURL:      "https://api.soltio.io/api/webhooks/processor",
	}
}

func TestCreatePayment(t *testing.T) {
	var received struct {
		apiKey      string
		contentType string
		body        map[string]any
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.apiKey = r.Header.Get("x-api-key")
		received.contentType = r.Header.Get("Content-Type")
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payment", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received.body))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"payment_id": 5077125000,
			"pay_address": "TPayAddr123",
			"pay_amount": 100.42,
			"pay_currency": "usdttrc20",
			"invoice_url": "https://nowpayments.io/payment/?iid=123"
		}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "np-test-key", Timeout: time.Second}, quietLogger())

	details, err := client.CreatePayment(context.Background(), paymentRequest())
	require.NoError(t, err)

	assert.Equal(t, "np-test-key", received.apiKey)
	assert.Equal(t, "application/json", received.contentType)
	assert.Equal(t, "SOLTIO-INV00001", received.body["order_id"])
	assert.Equal(t, "usdttrc20", received.body["pay_currency"])
	assert.Equal(t, "https://api.soltio.io/api/webhooks/processor", received.body["ipn_callback_url"])

	// Numeric payment_id is carried as its string form
	assert.Equal(t, "5077125000", details.PaymentID)
	assert.Equal(t, "TPayAddr123", details.PayAddress)
	assert.Equal(t, "usdttrc20", details.PayCurrency)
	assert.True(t, details.PayAmount.Equal(decimal.RequireFromString("100.42")))
}

func TestCreatePaymentStringPaymentID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"payment_id": "4417040910", "pay_address": "TAddr", "pay_amount": "10", "pay_currency": "usdttrc20"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "np-test-key"}, quietLogger())

	details, err := client.CreatePayment(context.Background(), paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, "4417040910", details.PaymentID)
}

func TestCreatePaymentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "Invalid api key"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "wrong-key"}, quietLogger())

	_, err := client.CreatePayment(context.Background(), paymentRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUpstream)
	assert.Contains(t, err.Error(), "Invalid api key")
}

func TestCreatePaymentMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway timeout</html>`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "np-test-key"}, quietLogger())

	_, err := client.CreatePayment(context.Background(), paymentRequest())
	assert.ErrorIs(t, err, errs.ErrUpstream)
}

func TestCreatePaymentUnreachableProcessor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "np-test-key"}, quietLogger())

	_, err := client.CreatePayment(context.Background(), paymentRequest())
	assert.ErrorIs(t, err, errs.ErrUpstream)
}
