package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/middlewares"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

type MenuController struct {
	Menus *services.MenuService
}

func NewMenuController(menus *services.MenuService) *MenuController {
	return &MenuController{Menus: menus}
}

func restaurantID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("restaurant_id"), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondError(c, http.StatusBadRequest, middlewares.ErrMissingRouteParams)
		return 0, false
	}
	return id, true
}

// GetOverview -> info merchant
func (mc *MenuController) GetOverview(c *gin.Context) {
	id, ok := restaurantID(c)
	if !ok {
		return
	}
	overview, err := mc.Menus.Overview(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Merchant overview", overview)
}

// GetCatalog -> kategori dan menu
func (mc *MenuController) GetCatalog(c *gin.Context) {
	id, ok := restaurantID(c)
	if !ok {
		return
	}
	catalog, err := mc.Menus.Catalog(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", catalog)
}
