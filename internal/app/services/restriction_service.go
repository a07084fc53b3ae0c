package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/helpers"
)

// RestrictionService manages per-event chat blocks and mutes
type RestrictionService interface {
	ListRestrictions(ctx context.Context, eventID string) ([]models.Restriction, error)
	Block(ctx context.Context, eventID string, userID models.UserID) (*models.Restriction, error)
	Unblock(ctx context.Context, eventID string, userID models.UserID) (*models.Restriction, error)
	Mute(ctx context.Context, eventID string, userID models.UserID, minutes int) (*models.Restriction, error)
	Unmute(ctx context.Context, eventID string, userID models.UserID) (*models.Restriction, error)
}

type restrictionServiceImpl struct {
	store  *repositories.Store
	clock  helpers.Clock
	logger zerolog.Logger
}

// NewRestrictionService creates a new RestrictionService
func NewRestrictionService(store *repositories.Store, clock helpers.Clock, logger zerolog.Logger) RestrictionService {
	return &restrictionServiceImpl{
		store:  store,
		clock:  clockOrDefault(clock),
		logger: logger,
	}
}

// ListRestrictions returns the restrictions of one event chat
func (s *restrictionServiceImpl) ListRestrictions(ctx context.Context, eventID string) ([]models.Restriction, error) {
	var list []models.Restriction
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		if _, ok := tx.Event(eventID); !ok {
			return eventNotFound(eventID)
		}
		list = tx.Restrictions(eventID)
		return nil
	})
	return list, err
}

// Block stops the user from posting until unblocked
func (s *restrictionServiceImpl) Block(ctx context.Context, eventID string, userID models.UserID) (*models.Restriction, error) {
	return s.update(ctx, eventID, userID, "block", func(r *models.Restriction, _ time.Time) {
		r.Blocked = true
	})
}

// Unblock lifts a block; a mute stays in place
func (s *restrictionServiceImpl) Unblock(ctx context.Context, eventID string, userID models.UserID) (*models.Restriction, error) {
	return s.update(ctx, eventID, userID, "unblock", func(r *models.Restriction, _ time.Time) {
		r.Blocked = false
	})
}

// Mute silences the user for minutes, or until unmuted when minutes is 0
func (s *restrictionServiceImpl) Mute(ctx context.Context, eventID string, userID models.UserID, minutes int) (*models.Restriction, error) {
	if minutes < 0 {
		return nil, apperrors.NewValidationError("minutes", "minutes must not be negative")
	}
	return s.update(ctx, eventID, userID, "mute", func(r *models.Restriction, now time.Time) {
		r.Muted = true
		r.MuteUntil = nil
		if minutes > 0 {
			until := now.Add(time.Duration(minutes) * time.Minute)
			r.MuteUntil = &until
		}
	})
}

// Unmute lifts a mute
func (s *restrictionServiceImpl) Unmute(ctx context.Context, eventID string, userID models.UserID) (*models.Restriction, error) {
	return s.update(ctx, eventID, userID, "unmute", func(r *models.Restriction, _ time.Time) {
		r.Muted = false
		r.MuteUntil = nil
	})
}

func (s *restrictionServiceImpl) update(ctx context.Context, eventID string, userID models.UserID, op string, change func(*models.Restriction, time.Time)) (*models.Restriction, error) {
	if userID.IsZero() {
		return nil, apperrors.NewValidationError("userId", "userId is required")
	}

	now := s.clock()
	var result models.Restriction
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		if _, ok := tx.Event(eventID); !ok {
			return eventNotFound(eventID)
		}

		r, ok := tx.Restriction(eventID, userID)
		if !ok {
			r = models.Restriction{UserID: userID}
		}
		change(&r, now)
		r.UpdatedAt = now
		tx.PutRestriction(eventID, r)
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("eventID", eventID).Str("userID", userID.String()).Str("op", op).Msg("Chat restriction updated")
	return &result, nil
}
