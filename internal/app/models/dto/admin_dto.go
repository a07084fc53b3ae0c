package dto

import (
	"time"

	"github.com/campushub/miniapp/internal/app/models"
)

// LoginRequest represents admin login credentials
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the admin token
type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// MuteRequest mutes a user for Minutes, or indefinitely when zero
type MuteRequest struct {
	Minutes int `json:"minutes" binding:"omitempty,min=0"`
}

// RestrictionListResponse lists the restrictions of one event chat
type RestrictionListResponse struct {
	EventID      string               `json:"eventId"`
	Restrictions []models.Restriction `json:"restrictions"`
}

// BroadcastRequest represents a message for every active contact
type BroadcastRequest struct {
	Message string `json:"message" binding:"required,notblank,maxrunes=4096"`
}

// BroadcastResult is the aggregate outcome of a broadcast
type BroadcastResult struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// WipeResponse reports how many records each collection lost
type WipeResponse struct {
	Category models.WipeCategory `json:"category"`
	Removed  map[string]int      `json:"removed"`
}

// ContactListResponse lists bot contacts
type ContactListResponse struct {
	Contacts []models.Contact `json:"contacts"`
	Source   string           `json:"source"`
}

// StatsResponse summarises collection sizes
type StatsResponse struct {
	Events          int `json:"events"`
	PendingEvents   int `json:"pendingEvents"`
	Participants    int `json:"participants"`
	Messages        int `json:"messages"`
	GlobalMessages  int `json:"globalMessages"`
	Photos          int `json:"photos"`
	PendingPhotos   int `json:"pendingPhotos"`
	Videos          int `json:"videos"`
	PendingVideos   int `json:"pendingVideos"`
	Schedules       int `json:"schedules"`
	UserSchedules   int `json:"userSchedules"`
	Contacts        int `json:"contacts"`
	ActiveContacts  int `json:"activeContacts"`
	RestrictedUsers int `json:"restrictedUsers"`
}
