package models

import "time"

// Default creator labels by creation channel
const (
	CreatorAnonymous     = "Anonymous"
	CreatorAdministrator = "Administrator"
)

// Event is a user- or admin-created campus event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"` // hours
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Moderation
	CreatorUsername string `json:"creatorUsername"`
	CreatorID       UserID `json:"creatorId,omitempty"`

	// Participants mirrors the roster length and is rewritten on every roster change
	Participants int `json:"participants"`
}

// ComputeExpiry sets ExpiresAt from CreatedAt and Duration
func (e *Event) ComputeExpiry() {
	e.ExpiresAt = e.CreatedAt.Add(time.Duration(e.Duration) * time.Hour)
}

// IsExpired reports whether the event has ended
func (e *Event) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// VisibleAt reports whether the event belongs in the public list at now
func (e *Event) VisibleAt(now time.Time, grace time.Duration) bool {
	if !e.IsEffectivelyApproved() {
		return false
	}
	return !now.After(e.ExpiresAt.Add(grace))
}

// Participant is one roster entry of an event
type Participant struct {
	UserID   UserID    `json:"userId"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}
