package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
)

const (
	maxSettingKeyLength   = 64
	maxSettingValueLength = 4096
)

// DefaultSettings are written on first start
var DefaultSettings = models.Settings{
	models.SettingSiteTitle:         "Campus Hub",
	models.SettingWelcomeMessage:    "Welcome! Find events, chat and share photos.",
	models.SettingModerationEnabled: "true",
}

// SettingsService manages free-form site settings
type SettingsService interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, update models.Settings) (models.Settings, error)
	EnsureDefaults(ctx context.Context, defaults models.Settings) (int, error)
}

type settingsServiceImpl struct {
	store  *repositories.Store
	logger zerolog.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(store *repositories.Store, logger zerolog.Logger) SettingsService {
	return &settingsServiceImpl{store: store, logger: logger}
}

// GetSettings returns a copy of the current settings
func (s *settingsServiceImpl) GetSettings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		settings = tx.Settings()
		return nil
	})
	return settings, err
}

// UpdateSettings merges update into the settings; an empty value removes the key
func (s *settingsServiceImpl) UpdateSettings(ctx context.Context, update models.Settings) (models.Settings, error) {
	if len(update) == 0 {
		return nil, apperrors.NewValidationError("settings", "no settings supplied")
	}

	clean := make(models.Settings, len(update))
	for k, v := range update {
		key := strings.TrimSpace(k)
		if key == "" || len(key) > maxSettingKeyLength {
			return nil, apperrors.NewValidationError("settings", "invalid setting key "+k)
		}
		if len(v) > maxSettingValueLength {
			return nil, apperrors.NewValidationError(key, "value is too long")
		}
		clean[key] = v
	}

	var settings models.Settings
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		tx.MergeSettings(clean)
		settings = tx.Settings()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("keys", len(clean)).Msg("Settings updated")
	return settings, nil
}

// EnsureDefaults adds missing keys without touching existing values and
// reports how many were added
func (s *settingsServiceImpl) EnsureDefaults(ctx context.Context, defaults models.Settings) (int, error) {
	added := 0
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		current := tx.Settings()
		missing := make(models.Settings)
		for k, v := range defaults {
			if _, ok := current[k]; !ok && v != "" {
				missing[k] = v
			}
		}
		if len(missing) > 0 {
			tx.MergeSettings(missing)
		}
		added = len(missing)
		return nil
	})
	return added, err
}
