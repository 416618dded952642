package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/municipal-tracker/internal/constants"
	apierrors "github.com/yukikurage/municipal-tracker/internal/errors"
	"github.com/yukikurage/municipal-tracker/internal/middleware"
	"github.com/yukikurage/municipal-tracker/internal/services"
	"github.com/yukikurage/municipal-tracker/internal/utils"
)

// respondServiceError maps the service error taxonomy onto API errors.
// Unexpected errors are attached to the context so the request logger records
// them; their text never reaches the client.
func respondServiceError(c *gin.Context, err error) {
	var validation *services.ValidationError
	var transition *services.TransitionError

	switch {
	case errors.As(err, &validation):
		apierrors.ValidationFailed(c, validation.Fields)
	case errors.As(err, &transition):
		apierrors.InvalidTransition(c, transition.Error(), gin.H{
			"from":     transition.From,
			"to":       transition.To,
			"conflict": transition.Conflict,
		})
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrFileNotFound):
		apierrors.NotFound(c, "File not found")
	case errors.Is(err, services.ErrActivityNotFound):
		apierrors.NotFound(c, "Activity not found")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

func currentUserID(c *gin.Context) (uint64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return userID, ok
}

// dateFields parses the date strings of a request body and collects one
// message per malformed field.
type dateFields struct {
	loc    *time.Location
	errors map[string]string
}

func newDateFields(loc *time.Location) *dateFields {
	return &dateFields{loc: loc, errors: map[string]string{}}
}

// required parses raw; an empty value yields nil so that the service reports
// the missing field.
func (d *dateFields) required(field, raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return d.parse(field, raw)
}

func (d *dateFields) optional(field string, raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	return d.parse(field, *raw)
}

func (d *dateFields) parse(field, raw string) *time.Time {
	t, err := utils.ParseDate(raw, d.loc)
	if err != nil {
		d.errors[field] = "must be RFC3339 or " + constants.DateLayout
		return nil
	}
	return &t
}

// check responds with the collected format errors and reports whether the
// request may go on.
func (d *dateFields) check(c *gin.Context) bool {
	if len(d.errors) == 0 {
		return true
	}
	apierrors.RespondWithError(c, http.StatusBadRequest, apierrors.NewAPIErrorWithDetails(apierrors.ErrCodeInvalidFormat, "Invalid date", d.errors))
	return false
}
