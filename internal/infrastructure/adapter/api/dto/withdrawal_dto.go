package dto

// WithdrawalRequest represents the API request for a merchant payout
type WithdrawalRequest struct {
	Amount   string `json:"amount" binding:"required"`
	Currency string `json:"currency" binding:"required"`
	Address  string `json:"address" binding:"required"`
}

// WithdrawalResponse represents a withdrawal in API responses
type WithdrawalResponse struct {
	WithdrawalID string `json:"withdrawalId"`
	MerchantID   string `json:"merchantId"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Address      string `json:"address"`
	Status       string `json:"status"`
	TxHash       string `json:"txHash,omitempty"`
}

// ResolveWithdrawalRequest is the operator decision for one withdrawal
type ResolveWithdrawalRequest struct {
	Status string `json:"status" binding:"required,oneof=APPROVED COMPLETED REJECTED"`
	TxHash string `json:"txHash"`
}

// BatchResolveRequest applies one decision to many withdrawals, row by row
type BatchResolveRequest struct {
	WithdrawalIDs []string `json:"withdrawalIds" binding:"required,min=1"`
	Action        string   `json:"action" binding:"required,oneof=APPROVED COMPLETED REJECTED"`
	TxHash        string   `json:"txHash"`
}

// BatchResolveResponse reports per-row outcomes
type BatchResolveResponse struct {
	Resolved []string          `json:"resolved"`
	Failed   map[string]string `json:"failed,omitempty"`
}
