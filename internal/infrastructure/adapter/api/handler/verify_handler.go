package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/domain/usecase/settlement"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/dto"
)

// Poll outcome discriminants. These strings are part of the API contract;
// the checkout UI switches on them.
const (
	pollErrInvalidAPIKey = "invalid_api_key"
	pollErrTimestamp     = "timestamp_error"
	pollErrKeysMissing   = "api_keys_missing"
	pollErrNotFound      = "not_found"
	pollErrExchangeAPI   = "exchange_api_error"
)

// VerifyHandler drives the poll settlement path for direct transfers
type VerifyHandler struct {
	confirmer *settlement.PollConfirmer
	logger    coreport.Logger
}

// NewVerifyHandler creates a new verify handler instance
func NewVerifyHandler(confirmer *settlement.PollConfirmer, logger coreport.Logger) *VerifyHandler {
	return &VerifyHandler{
		confirmer: confirmer,
		logger:    logger,
	}
}

// VerifyPayment handles the POST /api/v1/verify-payment endpoint. Classified
// poll failures come back as 200 with a discriminant so the checkout UI can
// keep polling or surface the right message; only an unknown invoice is 404.
func (h *VerifyHandler) VerifyPayment(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrValidation),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	result, err := h.confirmer.Verify(c.Request.Context(), req.InvoiceID)
	if err != nil {
		if domainerr.IsNotFoundError(err) && !domainerr.IsRetryablePollOutcome(err) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, pollFailure(err))
		return
	}

	c.JSON(http.StatusOK, dto.VerifyPaymentResponse{
		Success:      true,
		PlatformTxID: result.PlatformTxID,
	})
}

// pollFailure maps a classified poll error to its contract discriminant
func pollFailure(err error) dto.VerifyPaymentResponse {
	var notFound *domainerr.PaymentNotFoundError

	switch {
	case errors.Is(err, domainerr.ErrInvalidCredentials):
		return dto.VerifyPaymentResponse{
			Success: false,
			Error:   pollErrInvalidAPIKey,
			Message: "Exchange API keys are invalid or expired. Update them and try again.",
		}
	case errors.Is(err, domainerr.ErrClockSkew):
		return dto.VerifyPaymentResponse{
			Success: false,
			Error:   pollErrTimestamp,
			Message: "The exchange rejected the request timestamp. Try again shortly.",
		}
	case domainerr.IsConfigurationError(err):
		return dto.VerifyPaymentResponse{
			Success: false,
			Error:   pollErrKeysMissing,
			Message: "The merchant has not configured exchange API keys for automatic verification.",
		}
	case errors.As(err, &notFound):
		return dto.VerifyPaymentResponse{
			Success: false,
			Error:   pollErrNotFound,
			Message: fmt.Sprintf("No matching transfer found yet. Send exactly %s with note %q, then verify again.",
				notFound.Amount, notFound.Note),
		}
	case domainerr.IsRetryablePollOutcome(err):
		return dto.VerifyPaymentResponse{
			Success: false,
			Error:   pollErrNotFound,
			Message: "No matching transfer found yet. Verify again after sending the payment.",
		}
	default:
		return dto.VerifyPaymentResponse{
			Success: false,
			Error:   pollErrExchangeAPI,
			Message: "Could not reach the exchange to verify the payment. Try again.",
		}
	}
}
