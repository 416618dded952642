package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/municipal-tracker/internal/constants"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	apierrors "github.com/yukikurage/municipal-tracker/internal/errors"
	"github.com/yukikurage/municipal-tracker/internal/services"
	"github.com/yukikurage/municipal-tracker/internal/utils"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
	loc       *time.Location
	now       func() time.Time
}

func NewDashboardHandler(dashboard *services.DashboardService, loc *time.Location, now func() time.Time) *DashboardHandler {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &DashboardHandler{dashboard: dashboard, loc: loc, now: now}
}

// Stats returns the dashboard counters at the current time.
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(h.now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DailyReport returns the tasks, files and activities of ?date (default today).
func (h *DashboardHandler) DailyReport(c *gin.Context) {
	day := h.now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := utils.ParseDate(raw, h.loc)
		if err != nil {
			apierrors.InvalidFormat(c, "date", "date must be "+constants.DateLayout)
			return
		}
		day = parsed
	}

	report, err := h.dashboard.DailyReport(day)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToDailyReportDTO(*report, constants.DateLayout))
}
