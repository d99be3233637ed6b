package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/service"
)

type DashboardHandler struct {
	svc *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// GetStats godoc
// @Summary Dashboard statistics
// @Description Headline figures with period-over-period changes. When data cannot be loaded all figures are zero and data_available is false.
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.DashboardSummary
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats(c.Request.Context()))
}
