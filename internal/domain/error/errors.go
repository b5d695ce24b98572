package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeValidation          = 4001
	CodeInsufficientBalance = 4002
	CodeInvalidAmount       = 4003
	CodeConstraintViolation = 4005
	CodeAuthenticity        = 4010
	CodeInvalidAPIKey       = 4011
	CodeNotFound            = 4040
	CodeAlreadyPaid         = 4090
	CodeConfiguration       = 4220

	// 5xxx - Server / upstream errors
	CodeInternalServer     = 5000
	CodeUpstreamFailure    = 5020
	CodeInvalidCredentials = 5021
	CodeClockSkew          = 5022
)

// Base error types
var (
	// ErrValidation is returned when request input fails validation
	ErrValidation = errors.New("invalid request input")

	// ErrInvalidAmount is returned when a monetary amount is missing, malformed or non-positive
	ErrInvalidAmount = errors.New("amount must be a positive decimal")

	// ErrAuthenticity is returned when a webhook signature does not match the payload
	ErrAuthenticity = errors.New("signature verification failed")

	// ErrInvalidAPIKey is returned when the bearer API key is unknown or inactive
	ErrInvalidAPIKey = errors.New("invalid or inactive API key")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvoiceNotFound is returned when the requested invoice doesn't exist
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrTransactionNotFound is returned when the requested transaction doesn't exist
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrMerchantNotFound is returned when the requested merchant doesn't exist
	ErrMerchantNotFound = errors.New("merchant not found")

	// ErrWithdrawalNotFound is returned when the requested withdrawal doesn't exist
	ErrWithdrawalNotFound = errors.New("withdrawal not found")

	// ErrAlreadyPaid is returned when a rail is initiated on a completed invoice
	ErrAlreadyPaid = errors.New("invoice already paid")

	// ErrAlreadySettled is returned when the settlement claim was won by a
	// concurrent caller. It marks a benign outcome, not a failure: the caller
	// must acknowledge without crediting.
	ErrAlreadySettled = errors.New("transaction already settled")

	// ErrConfiguration is returned when the merchant is missing rail
	// configuration required for the requested operation
	ErrConfiguration = errors.New("merchant rail configuration missing")

	// ErrInsufficientBalance is returned when a withdrawal exceeds the merchant's available balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidCredentials is returned when the exchange rejects the merchant's API key
	ErrInvalidCredentials = errors.New("exchange credentials invalid or expired")

	// ErrClockSkew is returned when the exchange rejects the request timestamp
	ErrClockSkew = errors.New("exchange rejected request timestamp")

	// ErrUpstream is returned for unclassified upstream/exchange failures
	ErrUpstream = errors.New("upstream service failure")

	// ErrPaymentNotFound is returned by the poll path when no matching
	// exchange transfer exists yet; callers should retry later
	ErrPaymentNotFound = errors.New("matching payment not found yet")

	// ErrDuplicateWithdrawalResolution is returned when a withdrawal refund
	// was already applied by an earlier resolution
	ErrDuplicateWithdrawalResolution = errors.New("withdrawal already resolved")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrDatabaseConnection is returned when there's a problem connecting to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrInsufficientBalance):
		return CodeInsufficientBalance
	case errors.Is(err, ErrAuthenticity):
		return CodeAuthenticity
	case errors.Is(err, ErrInvalidAPIKey):
		return CodeInvalidAPIKey
	case errors.Is(err, ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrAlreadySettled):
		return CodeAlreadyPaid
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrClockSkew):
		return CodeClockSkew
	case errors.Is(err, ErrUpstream):
		return CodeUpstreamFailure
	case IsNotFoundError(err):
		return CodeNotFound
	case errors.Is(err, ErrConstraintViolation):
		return CodeConstraintViolation
	default:
		return CodeInternalServer
	}
}

// SettlementError carries context about a failed settlement attempt
type SettlementError struct {
	PlatformTxID string
	ProviderTxID string
	MerchantID   string
	Reason       string
	Err          error
}

// Error implements the error interface for SettlementError
func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement failed for %s (provider ref: %s, merchant: %s): %s - %v",
		e.PlatformTxID, e.ProviderTxID, e.MerchantID, e.Reason, e.Err)
}

// Unwrap returns the underlying error
func (e *SettlementError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *SettlementError) LogFields() map[string]any {
	return map[string]any{
		"error_type":     "settlement_error",
		"platform_tx_id": e.PlatformTxID,
		"provider_tx_id": e.ProviderTxID,
		"merchant_id":    e.MerchantID,
		"reason":         e.Reason,
		"error":          e.Err.Error(),
		"error_code":     ErrorCode(e.Err),
	}
}

// NewSettlementError creates a detailed settlement error
func NewSettlementError(platformTxID, providerTxID, merchantID, reason string, err error) error {
	return &SettlementError{
		PlatformTxID: platformTxID,
		ProviderTxID: providerTxID,
		MerchantID:   merchantID,
		Reason:       reason,
		Err:          err,
	}
}

// InsufficientBalanceError provides detailed error information for insufficient balance
type InsufficientBalanceError struct {
	MerchantID string
	Requested  string
	Available  string
}

// Error implements the error interface
func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for merchant %s: requested %s, available %s",
		e.MerchantID, e.Requested, e.Available)
}

// Is checks if the target error is an ErrInsufficientBalance
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientBalanceError) LogFields() map[string]any {
	return map[string]any{
		"error_type":  "insufficient_balance",
		"merchant_id": e.MerchantID,
		"requested":   e.Requested,
		"available":   e.Available,
		"error_code":  CodeInsufficientBalance,
	}
}

// NewInsufficientBalanceError creates a new detailed insufficient balance error
func NewInsufficientBalanceError(merchantID, requested, available string) error {
	return &InsufficientBalanceError{
		MerchantID: merchantID,
		Requested:  requested,
		Available:  available,
	}
}

// ExchangeError wraps an exchange API failure with the upstream error code so
// callers can map it to an actionable discriminant for the checkout UI.
type ExchangeError struct {
	Host         string
	UpstreamCode int
	Message      string
	Err          error
}

// Error implements the error interface
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange request to %s failed (code %d): %s: %v",
		e.Host, e.UpstreamCode, e.Message, e.Err)
}

// Unwrap returns the underlying error
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *ExchangeError) LogFields() map[string]any {
	return map[string]any{
		"error_type":    "exchange_error",
		"host":          e.Host,
		"upstream_code": e.UpstreamCode,
		"message":       e.Message,
		"error":         e.Err.Error(),
		"error_code":    ErrorCode(e.Err),
	}
}

// NewExchangeError creates an ExchangeError wrapping the classified sentinel
func NewExchangeError(host string, upstreamCode int, message string, sentinel error) error {
	return &ExchangeError{
		Host:         host,
		UpstreamCode: upstreamCode,
		Message:      message,
		Err:          sentinel,
	}
}

// PaymentNotFoundError is the poll path's no-match outcome. It carries the
// exact amount and note the payer must use so the checkout UI can echo them.
type PaymentNotFoundError struct {
	Amount string
	Note   string
}

// Error implements the error interface
func (e *PaymentNotFoundError) Error() string {
	return fmt.Sprintf("no matching transfer found: expecting %s with note %q", e.Amount, e.Note)
}

// Is checks if the target error is ErrPaymentNotFound
func (e *PaymentNotFoundError) Is(target error) bool {
	return target == ErrPaymentNotFound
}

// LogFields returns a map of fields for structured logging
func (e *PaymentNotFoundError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "payment_not_found",
		"amount":     e.Amount,
		"note":       e.Note,
		"error_code": CodeNotFound,
	}
}

// NewPaymentNotFoundError creates the retry-hint error for the poll path
func NewPaymentNotFoundError(amount, note string) error {
	return &PaymentNotFoundError{Amount: amount, Note: note}
}

// IsAuthenticityError checks if the error is a signature verification failure
func IsAuthenticityError(err error) bool {
	return errors.Is(err, ErrAuthenticity)
}

// IsAlreadySettledError checks if the error marks a lost settlement claim race
func IsAlreadySettledError(err error) bool {
	return errors.Is(err, ErrAlreadySettled)
}

// IsAlreadyPaidError checks if the error is an already-paid invoice guard
func IsAlreadyPaidError(err error) bool {
	return errors.Is(err, ErrAlreadyPaid)
}

// IsConfigurationError checks if the error is a missing rail configuration error
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsInsufficientBalanceError checks if the error is related to insufficient balance
func IsInsufficientBalanceError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsValidationError checks if the error is a request validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidAmount)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrMerchantNotFound) ||
		errors.Is(err, ErrWithdrawalNotFound)
}

// IsRetryablePollOutcome checks if the error means "payment not found yet",
// which the caller should surface as a retry hint rather than a failure
func IsRetryablePollOutcome(err error) bool {
	return errors.Is(err, ErrPaymentNotFound)
}
