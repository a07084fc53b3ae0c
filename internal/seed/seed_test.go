package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/repositories"
	appServices "github.com/campushub/miniapp/internal/app/services"
	"github.com/campushub/miniapp/internal/pkg/jsonstore"
)

func TestCreateDefaultDataKeepsExistingValues(t *testing.T) {
	ctx := context.Background()
	repo, err := jsonstore.NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	mirror := jsonstore.NewMirror(repo, zerolog.Nop())
	t.Cleanup(func() { _ = mirror.Close(ctx) })
	store, err := repositories.NewStore(ctx, mirror, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	settings := appServices.NewSettingsService(store, zerolog.Nop())
	if _, err := settings.UpdateSettings(ctx, models.Settings{models.SettingSiteTitle: "Physics Club"}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	if err := CreateDefaultData(ctx, settings, zerolog.Nop()); err != nil {
		t.Fatalf("CreateDefaultData: %v", err)
	}
	if err := CreateDefaultData(ctx, settings, zerolog.Nop()); err != nil {
		t.Fatalf("second CreateDefaultData: %v", err)
	}

	got, err := settings.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got[models.SettingSiteTitle] != "Physics Club" {
		t.Errorf("site title overwritten: %q", got[models.SettingSiteTitle])
	}
	if got[models.SettingModerationEnabled] != "true" {
		t.Errorf("moderation default = %q, want true", got[models.SettingModerationEnabled])
	}
}
