package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

type CartController struct {
	Carts *services.CartService
	Menus *services.MenuService
}

func NewCartController(carts *services.CartService, menus *services.MenuService) *CartController {
	return &CartController{Carts: carts, Menus: menus}
}

// GetCart -> isi keranjang meja
func (cc *CartController) GetCart(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	cart, err := cc.Carts.Cart(c.Request.Context(), scope)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart retrieved", cart)
}

// AddItem -> menambahkan menu ke keranjang
func (cc *CartController) AddItem(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	var req struct {
		MenuID            int64             `json:"menuId" binding:"required"`
		Quantity          *int              `json:"quantity"`
		SelectedOptions   map[string]string `json:"selectedOptions"`
		SelectedOptionIDs []int64           `json:"selectedOptionIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	ctx := c.Request.Context()
	menu, err := cc.Menus.Menu(ctx, scope.RestaurantID, req.MenuID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	cart, err := cc.Carts.AddItem(ctx, scope, *menu, quantity, req.SelectedOptions, req.SelectedOptionIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item added to cart", cart)
}

// UpdateQuantity -> mengubah jumlah satu baris. Nilai < 1 diabaikan.
func (cc *CartController) UpdateQuantity(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Quantity == nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("quantity is required"))
		return
	}

	cart, err := cc.Carts.UpdateQuantity(c.Request.Context(), scope, c.Param("line_key"), *req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart updated", cart)
}

// RemoveItem -> menghapus satu baris
func (cc *CartController) RemoveItem(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	cart, err := cc.Carts.RemoveItem(c.Request.Context(), scope, c.Param("line_key"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed", cart)
}

// ClearCart -> mengosongkan keranjang
func (cc *CartController) ClearCart(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	cart, err := cc.Carts.ClearCart(c.Request.Context(), scope)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart cleared", cart)
}
