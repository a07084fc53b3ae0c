package models

import "time"

// Photo is an uploaded gallery image
type Photo struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	UserID     UserID    `json:"userId,omitempty"`
	UserName   string    `json:"userName,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
	Moderation
	EventID     string `json:"eventId,omitempty"`
	Description string `json:"description,omitempty"`
}

// Video is an uploaded clip with its thumbnail
type Video struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	UserID     UserID    `json:"userId,omitempty"`
	UserName   string    `json:"userName,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
	Moderation
	Size        int64  `json:"size"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}
