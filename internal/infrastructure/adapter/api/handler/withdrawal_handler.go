package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
	domainerr "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	withdrawalUseCase "github.com/soltio/crypto-gateway/internal/domain/usecase/withdrawal"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/dto"
)

// WithdrawalHandler handles merchant payout requests and operator resolutions
type WithdrawalHandler struct {
	withdrawalService *withdrawalUseCase.Service
	logger            coreport.Logger
}

// NewWithdrawalHandler creates a new withdrawal handler instance
func NewWithdrawalHandler(withdrawalService *withdrawalUseCase.Service, logger coreport.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
		logger:            logger,
	}
}

// RequestWithdrawal handles the POST /api/v1/withdrawals endpoint
func (h *WithdrawalHandler) RequestWithdrawal(c *gin.Context) {
	merchant := authenticatedMerchant(c)
	if merchant == nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidAPIKey),
			Message: "Unauthenticated",
		})
		return
	}

	var req dto.WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrValidation),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	w, err := h.withdrawalService.Request(c.Request.Context(), merchant.ID, req.Amount, req.Currency, req.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, withdrawalToResponse(w))
}

// ResolveWithdrawal handles the PATCH /api/admin/withdrawals/:id endpoint
func (h *WithdrawalHandler) ResolveWithdrawal(c *gin.Context) {
	var req dto.ResolveWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrValidation),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	w, err := h.withdrawalService.Resolve(c.Request.Context(), c.Param("id"), req.Status, req.TxHash)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, withdrawalToResponse(w))
}

// ResolveBatch handles the POST /api/admin/withdrawals/batch endpoint.
// Rows resolve independently; one bad row never blocks the rest.
func (h *WithdrawalHandler) ResolveBatch(c *gin.Context) {
	var req dto.BatchResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrValidation),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	result, err := h.withdrawalService.ResolveBatch(c.Request.Context(), req.WithdrawalIDs, req.Action, req.TxHash)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.BatchResolveResponse{Resolved: result.Resolved}
	if len(result.Failed) > 0 {
		resp.Failed = result.Failed
	}
	c.JSON(http.StatusOK, resp)
}

// withdrawalToResponse maps a withdrawal entity to its API representation
func withdrawalToResponse(w *entity.Withdrawal) dto.WithdrawalResponse {
	return dto.WithdrawalResponse{
		WithdrawalID: w.ID,
		MerchantID:   w.MerchantID,
		Amount:       entity.FormatAmount(w.Amount),
		Currency:     w.Currency,
		Address:      w.Address,
		Status:       string(w.Status),
		TxHash:       w.TxHash,
	}
}
