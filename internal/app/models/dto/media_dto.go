package dto

import "github.com/campushub/miniapp/internal/app/models"

// UploadPhotoRequest holds the form fields sent along a photo
type UploadPhotoRequest struct {
	UserID      string `form:"userId"`
	UserName    string `form:"userName"`
	EventID     string `form:"eventId"`
	Description string `form:"description"`
}

// UploadVideoRequest holds the form fields sent along a video
type UploadVideoRequest struct {
	UserID      string `form:"userId"`
	UserName    string `form:"userName"`
	Title       string `form:"title"`
	Description string `form:"description"`
}

// MediaFilterRequest narrows admin media listings
type MediaFilterRequest struct {
	Status  string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	EventID string `form:"eventId"`
}

// PhotoListResponse represents a list of photos
type PhotoListResponse struct {
	Photos []models.Photo `json:"photos"`
}

// VideoListResponse represents a list of videos
type VideoListResponse struct {
	Videos []models.Video `json:"videos"`
}

// ModerationResult reports the outcome of an approve or reject decision
type ModerationResult struct {
	Type    models.EntityType       `json:"type"`
	ID      string                  `json:"id"`
	Status  models.ModerationStatus `json:"status"`
	Changed bool                    `json:"changed"`
	Entity  interface{}             `json:"entity"`
}
