package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

type PaymentController struct {
	Verifier *services.PaymentVerifier
	Watcher  *services.PaymentWatcher
}

func NewPaymentController(verifier *services.PaymentVerifier, watcher *services.PaymentWatcher) *PaymentController {
	return &PaymentController{Verifier: verifier, Watcher: watcher}
}

// StartVerification -> verifikasi pembayaran di background
func (pc *PaymentController) StartVerification(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	result, err := pc.Watcher.Watch(c.Request.Context(), scope, c.Query("orderCode"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusAccepted, "Payment verification started", result)
}

// GetPaymentStatus -> hasil watcher bila ada, selain itu cek sekali
func (pc *PaymentController) GetPaymentStatus(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	code, err := pc.Verifier.ResolveOrder(ctx, scope, c.Query("orderCode"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if result, found := pc.Watcher.Result(scope, code); found {
		utils.RespondJSON(c, http.StatusOK, "Payment verification result", result)
		return
	}

	code, status, err := pc.Verifier.CheckOnce(ctx, scope, code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment status", gin.H{
		"orderCode":     code,
		"paymentStatus": status,
	})
}

// GetCompletion -> data halaman pembayaran selesai
func (pc *PaymentController) GetCompletion(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	completion, err := pc.Verifier.Completion(c.Request.Context(), scope, c.Query("orderCode"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment completed", completion)
}

// GetPaymentMetrics -> metrik watcher
func (pc *PaymentController) GetPaymentMetrics(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Payment metrics", pc.Watcher.GetMetrics())
}
