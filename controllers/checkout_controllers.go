package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

type CheckoutController struct {
	Checkout *services.CheckoutService
}

func NewCheckoutController(checkout *services.CheckoutService) *CheckoutController {
	return &CheckoutController{Checkout: checkout}
}

// StartCheckout -> prepare order, minta payment intent, kembalikan redirect url
func (cc *CheckoutController) StartCheckout(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	var req struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	record, err := cc.Checkout.Checkout(c.Request.Context(), scope, req.PaymentMethod)
	if err != nil {
		if record != nil {
			_ = c.Error(err)
			utils.RespondErrorWithData(c, statusFor(err), err, record)
			return
		}
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Checkout ready, redirect to payment", record)
}

// GetCheckout -> status checkout terakhir meja
func (cc *CheckoutController) GetCheckout(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	record, found := cc.Checkout.Status(scope)
	if !found {
		utils.RespondError(c, http.StatusNotFound, errors.New("no checkout for this table"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Checkout status", record)
}
