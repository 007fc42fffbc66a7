package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vjbollavarapu/sitebackend/internal/services"
	"net/http"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (dh *DashboardHandler) Overview(c *gin.Context) {
	siteID, err := siteIDFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	overview, err := dh.dashboardService.Overview(c.Request.Context(), siteID, intQuery(c, "period_days", 30))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "overview_failed", err)
		return
	}
	RespondOK(c, overview)
}
