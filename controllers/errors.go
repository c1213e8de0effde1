package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/middlewares"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrMenuUnavailable),
		errors.Is(err, services.ErrMissingOrderContext),
		errors.Is(err, services.ErrInvalidRating):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrLineNotFound),
		errors.Is(err, services.ErrMenuNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrCheckoutSuperseded):
		return http.StatusConflict
	case errors.Is(err, services.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, services.ErrVerificationTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrOrderPreparation),
		errors.Is(err, services.ErrPaymentPreparation),
		errors.Is(err, services.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	}
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondServiceError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		utils.ErrorLogger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	_ = c.Error(err)
	utils.RespondError(c, status, err)
}

func mustScope(c *gin.Context) (models.Scope, bool) {
	scope, ok := middlewares.ScopeFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, middlewares.ErrMissingRouteParams)
		return models.Scope{}, false
	}
	return scope, true
}
