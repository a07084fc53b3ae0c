package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/helpers"
)

// ModerationService defines the approve/reject gate shared by events, photos and videos
type ModerationService interface {
	Moderate(ctx context.Context, kind models.EntityType, id string, action models.ModerationAction) (*dto.ModerationResult, error)
}

type moderationServiceImpl struct {
	store  *repositories.Store
	clock  helpers.Clock
	logger zerolog.Logger
}

// NewModerationService creates a new ModerationService
func NewModerationService(store *repositories.Store, clock helpers.Clock, logger zerolog.Logger) ModerationService {
	return &moderationServiceImpl{
		store:  store,
		clock:  clockOrDefault(clock),
		logger: logger,
	}
}

// Moderate applies a decision. Repeating the recorded decision reports
// Changed=false; the opposite decision fails with ErrAlreadyModerated.
func (s *moderationServiceImpl) Moderate(ctx context.Context, kind models.EntityType, id string, action models.ModerationAction) (*dto.ModerationResult, error) {
	if _, err := models.ParseEntityType(string(kind)); err != nil {
		return nil, err
	}
	if _, err := models.ParseModerationAction(string(action)); err != nil {
		return nil, err
	}

	result := &dto.ModerationResult{Type: kind, ID: id}
	now := s.clock()

	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		var (
			gate       *models.Moderation
			collection string
		)

		switch kind {
		case models.EntityEvent:
			event, ok := tx.Event(id)
			if !ok {
				return eventNotFound(id)
			}
			gate, collection = &event.Moderation, repositories.CollectionEvents
			defer func() { copied := *event; result.Entity = copied }()
		case models.EntityPhoto:
			photo, ok := tx.Photo(id)
			if !ok {
				return photoNotFound(id)
			}
			gate, collection = &photo.Moderation, repositories.CollectionPhotos
			defer func() { copied := *photo; result.Entity = copied }()
		case models.EntityVideo:
			video, ok := tx.Video(id)
			if !ok {
				return videoNotFound(id)
			}
			gate, collection = &video.Moderation, repositories.CollectionVideos
			defer func() { copied := *video; result.Entity = copied }()
		}

		changed, err := gate.Apply(action, now)
		if err != nil {
			return err
		}
		if changed {
			tx.Touch(collection)
		}
		result.Changed = changed
		result.Status = gate.Status
		return nil
	})
	if err != nil {
		s.logger.Debug().Err(err).Str("type", string(kind)).Str("id", id).Str("action", string(action)).Msg("Moderation refused")
		return nil, err
	}

	s.logger.Info().
		Str("type", string(kind)).
		Str("id", id).
		Str("status", string(result.Status)).
		Bool("changed", result.Changed).
		Msg("Moderation decision applied")
	return result, nil
}
