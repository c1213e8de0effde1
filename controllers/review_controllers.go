package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

type ReviewController struct {
	Reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{Reviews: reviews}
}

// SubmitReview
func (rc *ReviewController) SubmitReview(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	var req services.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	reviewed, err := rc.Reviews.Submit(c.Request.Context(), scope, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Review for menu %d submitted by %s (rating=%d)", req.MenuID, scope, req.Rating)
	utils.RespondJSON(c, http.StatusCreated, "Review submitted", gin.H{"reviewedMenuIds": reviewed})
}

// GetReviewed -> menu yang sudah direview meja ini
func (rc *ReviewController) GetReviewed(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	reviewed, err := rc.Reviews.Reviewed(c.Request.Context(), scope)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reviewed menus", gin.H{"reviewedMenuIds": reviewed})
}
