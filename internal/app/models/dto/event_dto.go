package dto

import (
	"strings"

	"github.com/campushub/miniapp/internal/app/models"
)

// --- Request DTOs ---

// CreateEventRequest represents event creation data
type CreateEventRequest struct {
	Title           string        `json:"title" binding:"required,notblank,maxrunes=200"`
	Date            string        `json:"date" binding:"required"`
	Time            string        `json:"time" binding:"required"`
	Location        string        `json:"location" binding:"required,notblank"`
	Description     string        `json:"description"`
	Duration        int           `json:"duration" binding:"omitempty,min=0"`
	CreatorUsername string        `json:"creatorUsername"`
	CreatorID       models.UserID `json:"creatorId"`
}

// UpdateEventRequest carries the editable fields of an event. Nil fields are left as is.
type UpdateEventRequest struct {
	Title       *string `json:"title"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	Duration    *int    `json:"duration" binding:"omitempty,min=1"`
}

// JoinEventRequest represents the user joining an event
type JoinEventRequest struct {
	UserID   models.UserID `json:"userId" binding:"required"`
	UserName string        `json:"userName"`
	Name     string        `json:"name"`
	Avatar   string        `json:"avatar"`
}

// DisplayName returns the name the client supplied under either key
func (r *JoinEventRequest) DisplayName() string {
	if name := strings.TrimSpace(r.UserName); name != "" {
		return name
	}
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return "User " + r.UserID.String()
}

// LeaveEventRequest represents the user leaving an event
type LeaveEventRequest struct {
	UserID models.UserID `json:"userId" binding:"required"`
}

// --- Response DTOs ---

// EventListResponse represents a list of events
type EventListResponse struct {
	Events []models.Event `json:"events"`
	Total  int            `json:"total"`
}

// JoinEventResponse reports the roster state after a join or leave
type JoinEventResponse struct {
	EventID      string `json:"eventId"`
	Joined       bool   `json:"joined"`
	Changed      bool   `json:"changed"`
	Participants int    `json:"participants"`
}

// JoinedStatusResponse answers whether a user is on the roster
type JoinedStatusResponse struct {
	Joined bool `json:"joined"`
}

// ParticipantListResponse represents an event roster
type ParticipantListResponse struct {
	Participants []models.Participant `json:"participants"`
	Count        int                  `json:"count"`
}
