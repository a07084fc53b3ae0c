package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/auth"
)

func TestLegacyLogin(t *testing.T) {
	admin := NewAdminService(newTestStore(t), nil, nil, nil, AdminConfig{Password: "s3cret"}, zerolog.Nop())
	ctx := context.Background()

	if _, err := admin.Login(ctx, "wrong"); !apperrors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("wrong password err = %v, want permission denied", err)
	}

	resp, err := admin.Login(ctx, "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token != LegacyAdminToken || resp.ExpiresAt != nil {
		t.Errorf("resp = %+v", resp)
	}
	if err := admin.ValidateToken(resp.Token); err != nil {
		t.Errorf("legacy token rejected: %v", err)
	}
	if err := admin.ValidateToken("forged"); !apperrors.Is(err, apperrors.ErrTokenInvalid) {
		t.Errorf("forged token err = %v", err)
	}
	if err := admin.ValidateToken(""); err == nil {
		t.Error("empty token accepted")
	}
}

func TestJWTLogin(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour})
	admin := NewAdminService(newTestStore(t), nil, nil, jwtService, AdminConfig{PasswordHash: hash}, zerolog.Nop())

	resp, err := admin.Login(context.Background(), "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == LegacyAdminToken || resp.ExpiresAt == nil {
		t.Errorf("expected a signed token, got %+v", resp)
	}
	if err := admin.ValidateToken(resp.Token); err != nil {
		t.Errorf("signed token rejected: %v", err)
	}
	if err := admin.ValidateToken(LegacyAdminToken); err == nil {
		t.Error("legacy token must be refused when disabled")
	}

	legacyAllowed := NewAdminService(newTestStore(t), nil, nil, jwtService, AdminConfig{PasswordHash: hash, AllowLegacyToken: true}, zerolog.Nop())
	if err := legacyAllowed.ValidateToken(LegacyAdminToken); err != nil {
		t.Errorf("legacy token refused although allowed: %v", err)
	}
}

func TestWipeEventsAndStats(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	admin := NewAdminService(f.store, nil, nil, nil, AdminConfig{Password: "x"}, zerolog.Nop())
	schedules := NewScheduleService(f.store, f.clock.Now, zerolog.Nop())

	event := f.createEvent(t, 2, true)
	f.createEvent(t, 2, false)
	_, _ = f.events.JoinEvent(ctx, event.ID, &dto.JoinEventRequest{UserID: "1"})
	_, _ = f.events.JoinEvent(ctx, event.ID, &dto.JoinEventRequest{UserID: "2"})
	_, _ = f.chat.PostGlobalMessage(ctx, &dto.PostMessageRequest{UserID: "1", Text: "hey"})
	_, _ = schedules.CreateSchedule(ctx, newScheduleRequest("A"))

	stats, err := admin.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Events != 2 || stats.PendingEvents != 1 || stats.Participants != 2 || stats.Messages != 2 || stats.GlobalMessages != 1 || stats.Schedules != 1 {
		t.Errorf("stats = %+v", stats)
	}

	wiped, err := admin.Wipe(ctx, models.WipeEvents)
	if err != nil {
		t.Fatalf("Wipe: %v", err)
	}
	if wiped.Removed["events"] != 2 || wiped.Removed["participants"] != 2 || wiped.Removed["messages"] != 2 {
		t.Errorf("removed = %+v", wiped.Removed)
	}

	stats, _ = admin.Stats(ctx)
	if stats.Events != 0 || stats.Participants != 0 || stats.GlobalMessages != 1 || stats.Schedules != 1 {
		t.Errorf("stats after wipe = %+v", stats)
	}

	if _, err := admin.Wipe(ctx, "everything"); !apperrors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("unknown category err = %v", err)
	}
}
