package dto

// CheckoutViewResponse is the invoice projection rendered by the hosted
// checkout page
type CheckoutViewResponse struct {
	InvoiceID    string                   `json:"invoiceId"`
	Amount       string                   `json:"amount"`
	Currency     string                   `json:"currency"`
	Status       string                   `json:"status"`
	OrderID      string                   `json:"orderId,omitempty"`
	MerchantName string                   `json:"merchantName"`
	BrandLogoURL string                   `json:"brandLogoUrl,omitempty"`
	ThemeBgColor string                   `json:"themeBgColor"`
	ExpiresAt    string                   `json:"expiresAt"`
	Transaction  *CheckoutTransactionView `json:"transaction,omitempty"`
}

// CheckoutTransactionView is the transaction subset shown on the checkout page
type CheckoutTransactionView struct {
	Status      string `json:"status"`
	PayAddress  string `json:"payAddress,omitempty"`
	PayAmount   string `json:"payAmount,omitempty"`
	PayCurrency string `json:"payCurrency,omitempty"`
}

// PayRequest selects the pay currency for the processor rail
type PayRequest struct {
	PayCurrency string `json:"payCurrency"`
}

// ProcessorPaymentResponse tells the payer where to send crypto
type ProcessorPaymentResponse struct {
	PaymentID   string `json:"paymentId"`
	PayAddress  string `json:"payAddress"`
	PayAmount   string `json:"payAmount"`
	PayCurrency string `json:"payCurrency"`
}

// DirectTransferResponse tells the payer where to send a peer transfer and
// which note to attach
type DirectTransferResponse struct {
	PayID    string `json:"payId"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Note     string `json:"note"`
}

// VerifyPaymentRequest asks the poll path to check for an incoming transfer
type VerifyPaymentRequest struct {
	InvoiceID string `json:"invoiceId" binding:"required"`
}

// VerifyPaymentResponse reports the poll outcome. Error is a stable
// discriminant consumed by the checkout UI; Message is human-readable.
type VerifyPaymentResponse struct {
	Success      bool   `json:"success"`
	PlatformTxID string `json:"platformTxId,omitempty"`
	Error        string `json:"error,omitempty"`
	Message      string `json:"message,omitempty"`
}
