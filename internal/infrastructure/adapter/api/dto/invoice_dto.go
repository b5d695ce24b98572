package dto

// CreateInvoiceRequest represents the API request for creating an invoice
type CreateInvoiceRequest struct {
	Amount           string `json:"amount" binding:"required"`
	Currency         string `json:"currency"`
	OrderID          string `json:"orderId"`
	OrderDescription string `json:"orderDescription"`
	// Intent selects what a settled invoice pays for; defaults to a plain payment
	Intent     string `json:"intent" binding:"omitempty,oneof=PLAIN PLAN_UPGRADE CUSTOMER_DEPOSIT"`
	PlanID     string `json:"planId"`
	CustomerID string `json:"customerId"`
	TestMode   bool   `json:"testMode"`
}

// CreateInvoiceResponse represents the API response for a created invoice
type CreateInvoiceResponse struct {
	InvoiceID    string `json:"invoiceId"`
	PlatformTxID string `json:"platformTxId"`
	PaymentURL   string `json:"paymentUrl"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}
