package dto

import (
	"time"

	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/services"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the bearer token for later requests
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// DailyReportDTO is the per-day feed consumed by the report exporter
type DailyReportDTO struct {
	Day         string        `json:"day"`
	Tasks       []TaskDTO     `json:"tasks"`
	FilesOpened []FileDTO     `json:"files_opened"`
	FilesClosed []FileDTO     `json:"files_closed"`
	Activities  []ActivityDTO `json:"activities"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	}
}

func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, user := range users {
		out[i] = ToUserDTO(user)
	}
	return out
}

// ToDailyReportDTO converts a daily report; the day is rendered as YYYY-MM-DD
func ToDailyReportDTO(report services.DailyReport, layout string) DailyReportDTO {
	return DailyReportDTO{
		Day:         report.Day.Format(layout),
		Tasks:       ToTaskDTOs(report.Tasks),
		FilesOpened: ToFileDTOs(report.FilesOpened),
		FilesClosed: ToFileDTOs(report.FilesClosed),
		Activities:  ToActivityDTOs(report.Activities),
	}
}
