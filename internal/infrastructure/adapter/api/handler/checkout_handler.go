package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	invoiceUseCase "github.com/soltio/crypto-gateway/internal/domain/usecase/invoice"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/dto"
)

// CheckoutHandler serves the hosted checkout page's API: the invoice view
// and the two payment rail initiations.
type CheckoutHandler struct {
	invoiceService *invoiceUseCase.Service
	logger         coreport.Logger
}

// NewCheckoutHandler creates a new checkout handler instance
func NewCheckoutHandler(invoiceService *invoiceUseCase.Service, logger coreport.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// GetInvoice handles the GET /api/checkout/:id endpoint
func (h *CheckoutHandler) GetInvoice(c *gin.Context) {
	view, err := h.invoiceService.GetInvoiceView(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.CheckoutViewResponse{
		InvoiceID:    view.ID,
		Amount:       view.Amount,
		Currency:     view.Currency,
		Status:       string(view.Status),
		OrderID:      view.OrderID,
		MerchantName: view.MerchantName,
		BrandLogoURL: view.BrandLogoURL,
		ThemeBgColor: view.ThemeBgColor,
		ExpiresAt:    view.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if view.Transaction != nil {
		resp.Transaction = &dto.CheckoutTransactionView{
			Status:      string(view.Transaction.Status),
			PayAddress:  view.Transaction.PayAddress,
			PayAmount:   view.Transaction.PayAmount,
			PayCurrency: view.Transaction.PayCurrency,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Pay handles the POST /api/checkout/:id/pay endpoint (processor rail)
func (h *CheckoutHandler) Pay(c *gin.Context) {
	var req dto.PayRequest
	// Body is optional; an empty body means the default pay currency
	_ = c.ShouldBindJSON(&req)

	payment, err := h.invoiceService.InitiateProcessorPayment(c.Request.Context(), c.Param("id"), req.PayCurrency)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProcessorPaymentResponse{
		PaymentID:   payment.PaymentID,
		PayAddress:  payment.PayAddress,
		PayAmount:   payment.PayAmount,
		PayCurrency: payment.PayCurrency,
	})
}

// PayDirect handles the POST /api/checkout/:id/pay-direct endpoint
func (h *CheckoutHandler) PayDirect(c *gin.Context) {
	payment, err := h.invoiceService.InitiateDirectTransfer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DirectTransferResponse{
		PayID:    payment.PayID,
		Amount:   payment.Amount,
		Currency: payment.Currency,
		Note:     payment.Note,
	})
}
