package routes

import (
	"github.com/gin-gonic/gin"

	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/domain/port/persistence"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/handler"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/middleware"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(
	router *gin.Engine,
	merchants persistence.MerchantRepository,
	invoiceHandler *handler.InvoiceHandler,
	checkoutHandler *handler.CheckoutHandler,
	webhookHandler *handler.WebhookHandler,
	verifyHandler *handler.VerifyHandler,
	withdrawalHandler *handler.WithdrawalHandler,
	logger coreport.Logger,
) {
	// Merchant API: authenticated with the merchant's API key
	merchantRoutes := router.Group("/api/v1")
	merchantRoutes.Use(middleware.APIKeyAuth(merchants, logger))
	{
		// POST /api/v1/invoices
		merchantRoutes.POST("/invoices", invoiceHandler.CreateInvoice)

		// POST /api/v1/withdrawals
		merchantRoutes.POST("/withdrawals", withdrawalHandler.RequestWithdrawal)
	}

	// Checkout API: public, keyed by invoice id only
	checkoutRoutes := router.Group("/api/checkout")
	{
		// GET /api/checkout/:id
		checkoutRoutes.GET("/:id", checkoutHandler.GetInvoice)

		// POST /api/checkout/:id/pay
		checkoutRoutes.POST("/:id/pay", checkoutHandler.Pay)

		// POST /api/checkout/:id/pay-direct
		checkoutRoutes.POST("/:id/pay-direct", checkoutHandler.PayDirect)
	}

	// POST /api/v1/verify-payment (public, driven by the checkout page)
	router.POST("/api/v1/verify-payment", verifyHandler.VerifyPayment)

	// POST /api/webhooks/processor (authenticated by IPN signature)
	router.POST("/api/webhooks/processor", webhookHandler.ProcessorWebhook)

	// Operator API for payout resolution
	adminRoutes := router.Group("/api/admin")
	{
		// PATCH /api/admin/withdrawals/:id
		adminRoutes.PATCH("/withdrawals/:id", withdrawalHandler.ResolveWithdrawal)

		// POST /api/admin/withdrawals/batch
		adminRoutes.POST("/withdrawals/batch", withdrawalHandler.ResolveBatch)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger) {
	// Apply middlewares in the correct order
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
}
