package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/municipal-tracker/internal/constants"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	apierrors "github.com/yukikurage/municipal-tracker/internal/errors"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/services"
	"github.com/yukikurage/municipal-tracker/internal/utils"
)

// FileHandler serves expedientes.
type FileHandler struct {
	files *services.FileService
	tasks *services.TaskService
	loc   *time.Location
}

func NewFileHandler(files *services.FileService, tasks *services.TaskService, loc *time.Location) *FileHandler {
	if loc == nil {
		loc = time.Local
	}
	return &FileHandler{files: files, tasks: tasks, loc: loc}
}

// ListFiles supports ?status=in_process|completed and a free-text ?q.
func (h *FileHandler) ListFiles(c *gin.Context) {
	input := services.ListFilesInput{Query: c.Query("q")}
	if raw := c.Query("status"); raw != "" {
		status := models.FileStatus(raw)
		if status != models.FileStatusInProcess && status != models.FileStatusCompleted {
			apierrors.InvalidFormat(c, "status", "status must be in_process or completed")
			return
		}
		input.Status = &status
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	files, total, err := h.files.ListFiles(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FileListResponse{
		Files: dto.ToFileDTOs(files),
		Pagination: params.Response(total),
	})
}

func (h *FileHandler) GetFile(c *gin.Context) {
	file, ok := fileFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToFileDTO(*file))
}

func (h *FileHandler) CreateFile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	input, ok := h.bindFileInput(c)
	if !ok {
		return
	}

	file, err := h.files.CreateFile(input, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToFileDTO(*file))
}

func (h *FileHandler) UpdateFile(c *gin.Context) {
	current, ok := fileFromContext(c)
	if !ok {
		return
	}

	input, ok := h.bindFileInput(c)
	if !ok {
		return
	}

	file, err := h.files.UpdateFile(current.ID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFileDTO(*file))
}

// DeleteFile removes the file; its tasks stay, unlinked.
func (h *FileHandler) DeleteFile(c *gin.Context) {
	file, ok := fileFromContext(c)
	if !ok {
		return
	}

	if err := h.files.DeleteFile(file.ID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

// ListTasks lists the tasks linked to the file.
func (h *FileHandler) ListTasks(c *gin.Context) {
	file, ok := fileFromContext(c)
	if !ok {
		return
	}

	records, err := h.tasks.ListFileTasks(file.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(records)})
}

func (h *FileHandler) bindFileInput(c *gin.Context) (services.FileInput, bool) {
	var req dto.FileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return services.FileInput{}, false
	}

	dates := newDateFields(h.loc)
	input := services.FileInput{
		EntryDate:   dates.required("entry_date", req.EntryDate),
		CaseNumber:  req.CaseNumber,
		Caption:     req.Caption,
		ExitDate:    dates.optional("exit_date", req.ExitDate),
		Destination: req.Destination,
		Notes:       req.Notes,
	}
	return input, dates.check(c)
}

func fileFromContext(c *gin.Context) (*models.File, bool) {
	value, exists := c.Get(constants.ContextKeyFile)
	if !exists {
		apierrors.InternalError(c, "File not found in context")
		return nil, false
	}
	file, ok := value.(*models.File)
	if !ok {
		apierrors.InternalError(c, "Invalid file data")
		return nil, false
	}
	return file, true
}
