package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easytrack/easytrack-api/middleware"
	"github.com/easytrack/easytrack-api/services"
)

type DashboardHandler struct {
	Service *services.DashboardService
}

// Summary returns the financial overview, budget status, spending trend,
// quick stats and the five most recent transactions.
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.Service.GetSummary(c.Request.Context(), middleware.UserID(c), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
