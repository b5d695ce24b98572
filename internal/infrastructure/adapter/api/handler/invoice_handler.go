package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
	domainerr "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	invoiceUseCase "github.com/soltio/crypto-gateway/internal/domain/usecase/invoice"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/dto"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/middleware"
)

// InvoiceHandler handles the merchant-facing invoice creation API
type InvoiceHandler struct {
	invoiceService *invoiceUseCase.Service
	logger         coreport.Logger
}

// NewInvoiceHandler creates a new invoice handler instance
func NewInvoiceHandler(invoiceService *invoiceUseCase.Service, logger coreport.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// CreateInvoice handles the POST /api/v1/invoices endpoint
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	merchant := authenticatedMerchant(c)
	if merchant == nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidAPIKey),
			Message: "Unauthenticated",
		})
		return
	}

	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrValidation),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	intent, err := intentFromRequest(req)
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := h.invoiceService.CreateInvoice(c.Request.Context(), invoiceUseCase.CreateInvoiceRequest{
		MerchantID:       merchant.ID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		OrderID:          req.OrderID,
		OrderDescription: req.OrderDescription,
		Intent:           intent,
		TestMode:         req.TestMode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateInvoiceResponse{
		InvoiceID:    created.InvoiceID,
		PlatformTxID: created.PlatformTxID,
		PaymentURL:   created.PaymentURL,
		Amount:       created.Amount,
		Currency:     created.Currency,
		Status:       "CREATED",
	})
}

// intentFromRequest maps the request's intent fields to the domain type
func intentFromRequest(req dto.CreateInvoiceRequest) (entity.SettlementIntent, error) {
	switch entity.IntentKind(req.Intent) {
	case "", entity.IntentPlainPayment:
		return entity.PlainPayment(), nil
	case entity.IntentPlanUpgrade:
		intent := entity.PlanUpgrade(req.PlanID)
		return intent, intent.Validate()
	case entity.IntentCustomerDeposit:
		intent := entity.CustomerDeposit(req.CustomerID)
		return intent, intent.Validate()
	default:
		return entity.SettlementIntent{}, domainerr.ErrValidation
	}
}

// authenticatedMerchant pulls the merchant resolved by the auth middleware
func authenticatedMerchant(c *gin.Context) *entity.Merchant {
	value, exists := c.Get(middleware.MerchantContextKey)
	if !exists {
		return nil
	}
	merchant, ok := value.(*entity.Merchant)
	if !ok {
		return nil
	}
	return merchant
}
