package dto

import "github.com/campushub/miniapp/internal/app/models"

// CreateScheduleRequest represents a system schedule upload
type CreateScheduleRequest struct {
	Name string                     `json:"name" binding:"required,notblank"`
	Days map[string][]models.Lesson `json:"days" binding:"required"`
}

// AssignScheduleRequest binds a system schedule to a user
type AssignScheduleRequest struct {
	ScheduleID string `json:"scheduleId" binding:"required"`
}

// ScheduleListResponse represents a list of schedules
type ScheduleListResponse struct {
	Schedules []models.Schedule `json:"schedules"`
}
