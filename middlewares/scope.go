package middlewares

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

const scopeKey = "scope"

var ErrMissingRouteParams = errors.New("missing route parameters")

// ScopeRequired resolves :restaurant_id and :table_id into a models.Scope.
// Requests without two positive ids never reach the handler.
func ScopeRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, err1 := strconv.ParseInt(c.Param("restaurant_id"), 10, 64)
		tableID, err2 := strconv.ParseInt(c.Param("table_id"), 10, 64)
		scope := models.Scope{RestaurantID: restaurantID, TableID: tableID}
		if err1 != nil || err2 != nil || !scope.Valid() {
			utils.RespondError(c, http.StatusBadRequest, ErrMissingRouteParams)
			c.Abort()
			return
		}
		c.Set(scopeKey, scope)
		c.Next()
	}
}

// ScopeFrom returns the scope set by ScopeRequired
func ScopeFrom(c *gin.Context) (models.Scope, bool) {
	v, ok := c.Get(scopeKey)
	if !ok {
		return models.Scope{}, false
	}
	scope, ok := v.(models.Scope)
	return scope, ok
}
