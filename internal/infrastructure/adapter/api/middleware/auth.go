package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainerr "github.com/soltio/crypto-gateway/internal/domain/error"
	coreport "github.com/soltio/crypto-gateway/internal/domain/port/core"
	"github.com/soltio/crypto-gateway/internal/domain/port/persistence"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/dto"
)

// MerchantContextKey is where the authenticated merchant is stored on the
// gin context by APIKeyAuth.
const MerchantContextKey = "merchant"

// APIKeyAuth authenticates merchant API calls with a bearer API key and puts
// the resolved merchant on the request context.
func APIKeyAuth(merchants persistence.MerchantRepository, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c.GetHeader("Authorization"))
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(domainerr.ErrInvalidAPIKey),
				Message: "Missing API key",
			})
			return
		}

		merchant, err := merchants.GetByAPIKey(c.Request.Context(), key)
		if err != nil {
			logger.Warn("API key rejected", map[string]any{
				"path":      c.Request.URL.Path,
				"client_ip": c.ClientIP(),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(domainerr.ErrInvalidAPIKey),
				Message: "Invalid or inactive API key",
			})
			return
		}

		c.Set(MerchantContextKey, merchant)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return strings.TrimSpace(header)
}
