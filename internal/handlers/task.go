package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/municipal-tracker/internal/constants"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	apierrors "github.com/yukikurage/municipal-tracker/internal/errors"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/repository"
	"github.com/yukikurage/municipal-tracker/internal/services"
	"github.com/yukikurage/municipal-tracker/internal/utils"
)

type TaskHandler struct {
	tasks *services.TaskService
	users *services.AuthService
	loc   *time.Location
}

func NewTaskHandler(tasks *services.TaskService, users *services.AuthService, loc *time.Location) *TaskHandler {
	if loc == nil {
		loc = time.Local
	}
	return &TaskHandler{
		tasks: tasks,
		users: users,
		loc:   loc,
	}
}

// ListTasks returns tasks matching the status, category, date and file
// filters, ordered by ?sort and ?order.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	input, ok := h.parseListQuery(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	records, total, err := h.tasks.ListTasks(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(records, params, total))
}

func (h *TaskHandler) parseListQuery(c *gin.Context) (services.ListTasksInput, bool) {
	var input services.ListTasksInput

	for _, raw := range splitQuery(c.Query("status")) {
		status := models.TaskStatus(raw)
		if !status.Valid() {
			apierrors.InvalidFormat(c, "status", "Unknown status "+raw)
			return input, false
		}
		input.Statuses = append(input.Statuses, status)
	}

	for _, raw := range splitQuery(c.Query("category")) {
		category := models.TaskCategory(raw)
		if !category.Valid() {
			apierrors.InvalidFormat(c, "category", "Unknown category "+raw)
			return input, false
		}
		input.Categories = append(input.Categories, category)
	}

	dates := newDateFields(h.loc)
	input.DateFrom = dates.required("from", c.Query("from"))
	input.DateTo = dates.required("to", c.Query("to"))
	if !dates.check(c) {
		return input, false
	}
	// A bare day as upper bound includes the whole day.
	if input.DateTo != nil && len(strings.TrimSpace(c.Query("to"))) == len(constants.DateLayout) {
		_, end := utils.DayBounds(*input.DateTo, h.loc)
		input.DateTo = &end
	}

	if raw := c.Query("file_id"); raw != "" {
		fileID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.InvalidFormat(c, "file_id", "Invalid file_id")
			return input, false
		}
		input.FileID = &fileID
	}

	input.SortBy = repository.SortByDate
	if raw := c.Query("sort"); raw != "" {
		input.SortBy = repository.TaskSortField(raw)
		if !input.SortBy.Valid() {
			apierrors.InvalidFormat(c, "sort", "Unknown sort key "+raw)
			return input, false
		}
	}

	switch order := strings.ToLower(c.DefaultQuery("order", "asc")); order {
	case "asc":
	case "desc":
		input.Descending = true
	default:
		apierrors.InvalidFormat(c, "order", "order must be asc or desc")
		return input, false
	}

	return input, true
}

// GetTask returns the task loaded by middleware.LoadTask
func (h *TaskHandler) GetTask(c *gin.Context) {
	record, ok := taskFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*record))
}

// CreateTask creates a new pending task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	input, ok := h.bindTaskInput(c)
	if !ok {
		return
	}

	record, err := h.tasks.CreateTask(input, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*record))
}

// UpdateTask replaces the editable fields of a task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	current, ok := taskFromContext(c)
	if !ok {
		return
	}

	input, ok := h.bindTaskInput(c)
	if !ok {
		return
	}

	record, err := h.tasks.UpdateTask(current.ID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*record))
}

// DeleteTask hard deletes a task and its audit list
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	record, ok := taskFromContext(c)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(record.ID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// ChangeStatus records a status transition performed by the current user
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	record, ok := taskFromContext(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if !req.Status.Valid() {
		apierrors.ValidationFailed(c, map[string]string{"status": "must be pending, overdue or completed"})
		return
	}

	user, err := h.users.GetUser(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if _, err := h.tasks.ChangeStatus(services.ChangeStatusInput{
		TaskID:   record.ID,
		To:       req.Status,
		Note:     req.Note,
		Actor:    services.UserActor(user),
		Expected: req.ExpectedStatus,
	}); err != nil {
		respondServiceError(c, err)
		return
	}

	updated, err := h.tasks.GetTask(record.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// History returns the audit list of a task in chronological order
func (h *TaskHandler) History(c *gin.Context) {
	record, ok := taskFromContext(c)
	if !ok {
		return
	}

	history, err := h.tasks.History(record.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{
		TaskID:  record.ID,
		History: dto.ToStatusChangeDTOs(history),
	})
}

func (h *TaskHandler) bindTaskInput(c *gin.Context) (services.TaskInput, bool) {
	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return services.TaskInput{}, false
	}

	dates := newDateFields(h.loc)
	input := services.TaskInput{
		Date:                 dates.required("date", req.Date),
		Category:             req.Category,
		ActNumber:            req.ActNumber,
		Deadline:             dates.optional("deadline", req.Deadline),
		ViolatorName:         req.ViolatorName,
		ViolatorDNI:          req.ViolatorDNI,
		ViolatorAddress:      req.ViolatorAddress,
		ViolationDescription: req.ViolationDescription,
		Notes:                req.Notes,
		FileID:               req.FileID,
	}
	return input, dates.check(c)
}

func taskFromContext(c *gin.Context) (*services.TaskRecord, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return nil, false
	}
	record, ok := value.(*services.TaskRecord)
	if !ok {
		apierrors.InternalError(c, "Invalid task data")
		return nil, false
	}
	return record, true
}

func splitQuery(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
