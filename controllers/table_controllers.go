package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

type TableController struct {
	QRCodes *services.QRCodeService
}

func NewTableController(qrCodes *services.QRCodeService) *TableController {
	return &TableController{QRCodes: qrCodes}
}

// GetTableQRCode -> PNG QR code menuju halaman menu meja
func (tc *TableController) GetTableQRCode(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	png, err := tc.QRCodes.TableQRCode(scope.RestaurantID, scope.TableID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
