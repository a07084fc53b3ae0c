package models

import (
	"errors"
	"time"

	"github.com/campushub/miniapp/internal/pkg/apperrors"
)

// Restriction limits one user in one event chat. No entry means unrestricted.
type Restriction struct {
	UserID    UserID     `json:"userId"`
	Blocked   bool       `json:"blocked,omitempty"`
	Muted     bool       `json:"muted,omitempty"`
	MuteUntil *time.Time `json:"muteUntil,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IsEmpty reports whether the restriction no longer limits anything
func (r Restriction) IsEmpty() bool {
	return !r.Blocked && !r.Muted
}

// MuteElapsed reports whether a timed mute has run out
func (r Restriction) MuteElapsed(now time.Time) bool {
	return r.Muted && r.MuteUntil != nil && !now.Before(*r.MuteUntil)
}

// CanPost returns nil when the user may post at now
func (r Restriction) CanPost(now time.Time) error {
	if r.Blocked {
		return apperrors.NewCustomError(errors.Join(apperrors.ErrPermissionDenied, apperrors.ErrUserBlocked), "You are blocked in this chat")
	}
	if r.Muted && !r.MuteElapsed(now) {
		return apperrors.NewCustomError(errors.Join(apperrors.ErrPermissionDenied, apperrors.ErrUserMuted), "You are muted in this chat")
	}
	return nil
}
