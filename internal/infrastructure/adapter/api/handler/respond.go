package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/soltio/crypto-gateway/internal/domain/error"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/dto"
)

// httpStatus maps a domain error to its HTTP status code
func httpStatus(err error) int {
	switch {
	case domainerr.IsValidationError(err),
		domainerr.IsInsufficientBalanceError(err):
		return http.StatusBadRequest
	case domainerr.IsAuthenticityError(err),
		errors.Is(err, domainerr.ErrInvalidAPIKey):
		return http.StatusUnauthorized
	case domainerr.IsNotFoundError(err):
		return http.StatusNotFound
	case domainerr.IsAlreadyPaidError(err),
		errors.Is(err, domainerr.ErrDuplicateWithdrawalResolution):
		return http.StatusConflict
	case domainerr.IsConfigurationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainerr.ErrUpstream),
		errors.Is(err, domainerr.ErrInvalidCredentials),
		errors.Is(err, domainerr.ErrClockSkew):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the standardized error envelope for a domain error
func respondError(c *gin.Context, err error) {
	c.JSON(httpStatus(err), dto.ErrorResponse{
		Code:    domainerr.ErrorCode(err),
		Message: err.Error(),
	})
}
