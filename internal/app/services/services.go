// Package services holds the business rules of the mini-app: events and their
// rosters, chats, moderation, media, schedules and the admin surface.
package services

import (
	"errors"
	"time"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/helpers"
	"github.com/campushub/miniapp/internal/pkg/websocket"
)

// EventRules bounds event lifetimes and chat input
type EventRules struct {
	DefaultDuration  int // hours
	MaxDuration      int // hours
	VisibilityGrace  time.Duration
	MaxMessageLength int
}

// DefaultEventRules returns the rules used when the configuration leaves them unset
func DefaultEventRules() EventRules {
	return EventRules{
		DefaultDuration:  24,
		MaxDuration:      720,
		VisibilityGrace:  72 * time.Hour,
		MaxMessageLength: 2000,
	}
}

func (r EventRules) withDefaults() EventRules {
	def := DefaultEventRules()
	if r.DefaultDuration <= 0 {
		r.DefaultDuration = def.DefaultDuration
	}
	if r.MaxDuration <= 0 {
		r.MaxDuration = def.MaxDuration
	}
	if r.VisibilityGrace <= 0 {
		r.VisibilityGrace = def.VisibilityGrace
	}
	if r.MaxMessageLength <= 0 {
		r.MaxMessageLength = def.MaxMessageLength
	}
	return r
}

// clampDuration maps a requested duration into [1, max]; 0 means the default
func (r EventRules) clampDuration(hours int) int {
	if hours <= 0 {
		hours = r.DefaultDuration
	}
	if hours < 1 {
		hours = 1
	}
	if hours > r.MaxDuration {
		hours = r.MaxDuration
	}
	return hours
}

// ModerationNotifier is told about submissions that wait for review
type ModerationNotifier interface {
	NotifyModerationAsync(kind models.EntityType, id string)
}

func clockOrDefault(clock helpers.Clock) helpers.Clock {
	if clock == nil {
		return helpers.SystemClock
	}
	return clock
}

// publish pushes to connected clients when a hub is wired
func publish(hub *websocket.Hub, msg *websocket.Message) {
	if hub != nil {
		hub.Publish(msg)
	}
}

func eventNotFound(id string) error {
	return apperrors.NewCustomError(errors.Join(apperrors.ErrResourceNotFound, apperrors.ErrEventNotFound), "Event not found: "+id)
}

func photoNotFound(id string) error {
	return apperrors.NewCustomError(errors.Join(apperrors.ErrResourceNotFound, apperrors.ErrPhotoNotFound), "Photo not found: "+id)
}

func videoNotFound(id string) error {
	return apperrors.NewCustomError(errors.Join(apperrors.ErrResourceNotFound, apperrors.ErrVideoNotFound), "Video not found: "+id)
}

func scheduleNotFound(id string) error {
	return apperrors.NewCustomError(errors.Join(apperrors.ErrResourceNotFound, apperrors.ErrScheduleNotFound), "Schedule not found: "+id)
}

// moderationEnabled reads the site switch; anything but "false" keeps review on
func moderationEnabled(settings models.Settings) bool {
	return settings[models.SettingModerationEnabled] != "false"
}

func userLabel(name string, id models.UserID) string {
	if name != "" {
		return name
	}
	return "User " + id.String()
}
