package models

import (
	"time"

	"github.com/campushub/miniapp/internal/pkg/apperrors"
)

// ModerationStatus is the review state shared by events, photos and videos
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

// ModerationAction is an admin decision
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
)

// ParseModerationAction validates a raw action string
func ParseModerationAction(s string) (ModerationAction, error) {
	switch ModerationAction(s) {
	case ActionApprove, ActionReject:
		return ModerationAction(s), nil
	}
	return "", apperrors.NewCustomError(apperrors.ErrUnknownAction, "action must be approve or reject")
}

// EntityType names a moderated collection
type EntityType string

const (
	EntityEvent EntityType = "event"
	EntityPhoto EntityType = "photo"
	EntityVideo EntityType = "video"
)

// ParseEntityType validates a raw entity type string
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityEvent, EntityPhoto, EntityVideo:
		return EntityType(s), nil
	}
	return "", apperrors.NewCustomError(apperrors.ErrUnknownEntityType, "entity type must be event, photo or video")
}

// Moderation carries the status fields embedded in every moderated record.
// An empty Status only occurs on legacy records and counts as approved for
// visibility while still accepting a first decision.
type Moderation struct {
	Status     ModerationStatus `json:"status,omitempty"`
	ApprovedAt *time.Time       `json:"approvedAt,omitempty"`
	RejectedAt *time.Time       `json:"rejectedAt,omitempty"`
}

// IsApproved reports whether the record is approved
func (m Moderation) IsApproved() bool {
	return m.Status == StatusApproved
}

// IsEffectivelyApproved treats legacy records without a status as approved
func (m Moderation) IsEffectivelyApproved() bool {
	return m.Status == StatusApproved || m.Status == ""
}

// Decided reports whether an approve/reject decision was recorded
func (m Moderation) Decided() bool {
	return m.Status == StatusApproved || m.Status == StatusRejected
}

// Apply moves the record through the gate. Decisions are terminal: repeating
// the recorded decision changes nothing, the opposite one is a conflict.
func (m *Moderation) Apply(action ModerationAction, now time.Time) (changed bool, err error) {
	target := StatusApproved
	if action == ActionReject {
		target = StatusRejected
	}

	if m.Decided() {
		if m.Status == target {
			return false, nil
		}
		return false, apperrors.NewCustomError(apperrors.ErrAlreadyModerated, "already "+string(m.Status))
	}

	m.Status = target
	stamp := now
	if target == StatusApproved {
		m.ApprovedAt = &stamp
	} else {
		m.RejectedAt = &stamp
	}
	return true, nil
}

// Approve marks a record approved at creation time (admin uploads)
func (m *Moderation) Approve(now time.Time) {
	stamp := now
	m.Status = StatusApproved
	m.ApprovedAt = &stamp
}
