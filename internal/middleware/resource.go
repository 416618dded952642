package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/municipal-tracker/internal/constants"
	apierrors "github.com/yukikurage/municipal-tracker/internal/errors"
	"github.com/yukikurage/municipal-tracker/internal/services"
)

// ParseIDParam reads the :id path parameter.
func ParseIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apierrors.InvalidFormat(c, "id", "Invalid id")
		return 0, false
	}
	return id, true
}

// LoadTask resolves :id to a task record and stores it under "task"
func LoadTask(tasks *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParseIDParam(c)
		if !ok {
			c.Abort()
			return
		}

		record, err := tasks.GetTask(id)
		if err != nil {
			if errors.Is(err, services.ErrTaskNotFound) {
				apierrors.NotFound(c, "Task not found")
			} else {
				_ = c.Error(err)
				apierrors.InternalError(c, "Failed to load task")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, record)
		c.Next()
	}
}

// LoadFile resolves :id to a file and stores it under "file"
func LoadFile(files *services.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParseIDParam(c)
		if !ok {
			c.Abort()
			return
		}

		file, err := files.GetFile(id)
		if err != nil {
			if errors.Is(err, services.ErrFileNotFound) {
				apierrors.NotFound(c, "File not found")
			} else {
				_ = c.Error(err)
				apierrors.InternalError(c, "Failed to load file")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyFile, file)
		c.Next()
	}
}
