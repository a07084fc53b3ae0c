package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	appServices "github.com/campushub/miniapp/internal/app/services"
)

// CreateDefaultData writes the default site settings for keys that are not set yet.
func CreateDefaultData(ctx context.Context, settings appServices.SettingsService, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default settings...")

	added, err := settings.EnsureDefaults(ctx, appServices.DefaultSettings)
	if err != nil {
		return fmt.Errorf("failed to write default settings: %w", err)
	}

	if added > 0 {
		lgr.Info().Int("added", added).Msg("Default settings created")
	} else {
		lgr.Debug().Msg("Default settings already present")
	}
	return nil
}
