package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	apierrors "github.com/yukikurage/municipal-tracker/internal/errors"
	"github.com/yukikurage/municipal-tracker/internal/middleware"
	"github.com/yukikurage/municipal-tracker/internal/services"
	"github.com/yukikurage/municipal-tracker/internal/utils"
)

type ActivityHandler struct {
	activities *services.ActivityService
	loc        *time.Location
}

func NewActivityHandler(activities *services.ActivityService, loc *time.Location) *ActivityHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ActivityHandler{activities: activities, loc: loc}
}

func (h *ActivityHandler) ListActivities(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	activities, total, err := h.activities.ListActivities(c.Query("q"), params.Page, params.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ActivityListResponse{
		Activities: dto.ToActivityDTOs(activities),
		Pagination: params.Response(total),
	})
}

func (h *ActivityHandler) GetActivity(c *gin.Context) {
	id, ok := middleware.ParseIDParam(c)
	if !ok {
		return
	}

	activity, err := h.activities.GetActivity(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToActivityDTO(*activity))
}

func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	input, ok := h.bindActivityInput(c)
	if !ok {
		return
	}

	activity, err := h.activities.CreateActivity(input, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToActivityDTO(*activity))
}

func (h *ActivityHandler) UpdateActivity(c *gin.Context) {
	id, ok := middleware.ParseIDParam(c)
	if !ok {
		return
	}

	input, ok := h.bindActivityInput(c)
	if !ok {
		return
	}

	activity, err := h.activities.UpdateActivity(id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToActivityDTO(*activity))
}

func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	id, ok := middleware.ParseIDParam(c)
	if !ok {
		return
	}

	if err := h.activities.DeleteActivity(id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Activity deleted successfully"})
}

func (h *ActivityHandler) bindActivityInput(c *gin.Context) (services.ActivityInput, bool) {
	var req dto.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return services.ActivityInput{}, false
	}

	dates := newDateFields(h.loc)
	input := services.ActivityInput{
		Date:        dates.required("date", req.Date),
		Description: req.Description,
		Address:     req.Address,
		Notes:       req.Notes,
	}
	return input, dates.check(c)
}
