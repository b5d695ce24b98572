package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/domain/usecase/settlement"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/dto"
)

// SignatureHeaderIPN is the processor's signature header on payment
// notifications
const SignatureHeaderIPN = "x-nowpayments-sig"

// maxWebhookBody caps notification bodies; real IPN payloads are tiny
const maxWebhookBody = 1 << 20

// WebhookHandler consumes processor payment notifications
type WebhookHandler struct {
	confirmer *settlement.WebhookConfirmer
	logger    coreport.Logger
}

// NewWebhookHandler creates a new webhook handler instance
func NewWebhookHandler(confirmer *settlement.WebhookConfirmer, logger coreport.Logger) *WebhookHandler {
	return &WebhookHandler{
		confirmer: confirmer,
		logger:    logger,
	}
}

// ProcessorWebhook handles the POST /api/webhooks/processor endpoint.
// Terminal notifications settle the matching transaction; everything the
// pipeline classifies as benign is acknowledged with {received:true} so the
// processor stops retrying.
func (h *WebhookHandler) ProcessorWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrValidation),
			Message: "Cannot read notification body",
		})
		return
	}

	outcome, err := h.confirmer.Confirm(c.Request.Context(), body, c.GetHeader(SignatureHeaderIPN))
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Debug("Webhook processed", map[string]any{
		"outcome": string(outcome),
	})
	c.JSON(http.StatusOK, gin.H{"received": true})
}
