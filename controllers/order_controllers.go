package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

type OrderController struct {
	History *services.OrderHistoryService
}

func NewOrderController(history *services.OrderHistoryService) *OrderController {
	return &OrderController{History: history}
}

// GetOrderHistory -> riwayat order meja, terbaru dulu
func (oc *OrderController) GetOrderHistory(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	entries, err := oc.History.History(c.Request.Context(), scope)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order history", entries)
}

// GetCurrentOrder
func (oc *OrderController) GetCurrentOrder(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	current, err := oc.History.Current(c.Request.Context(), scope)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current order", current)
}
