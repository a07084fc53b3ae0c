package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/presence"
)

type eventFixture struct {
	store    *repositories.Store
	clock    *fakeClock
	notifier *recordingNotifier
	events   EventService
	chat     ChatService
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()
	f := &eventFixture{
		store:    newTestStore(t),
		clock:    newFakeClock(),
		notifier: &recordingNotifier{},
	}
	tracker := presence.NewTracker(presence.DefaultTTL, f.clock.Now)
	f.events = NewEventService(f.store, tracker, nil, f.notifier, DefaultEventRules(), f.clock.Now, zerolog.Nop())
	f.chat = NewChatService(f.store, tracker, nil, DefaultEventRules(), f.clock.Now, zerolog.Nop())
	return f
}

func (f *eventFixture) createEvent(t *testing.T, duration int, byAdmin bool) *models.Event {
	t.Helper()
	event, err := f.events.CreateEvent(context.Background(), &dto.CreateEventRequest{
		Title:    "Board games",
		Date:     "2025-09-02",
		Time:     "18:00",
		Location: "Library",
		Duration: duration,
	}, byAdmin)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return event
}

func publicIDs(t *testing.T, f *eventFixture) map[string]bool {
	t.Helper()
	events, err := f.events.ListPublicEvents(context.Background())
	if err != nil {
		t.Fatalf("ListPublicEvents: %v", err)
	}
	ids := make(map[string]bool, len(events))
	for _, e := range events {
		ids[e.ID] = true
	}
	return ids
}

func TestCreateEventDefaults(t *testing.T) {
	f := newEventFixture(t)

	public := f.createEvent(t, 0, false)
	if public.Status != models.StatusPending {
		t.Errorf("public event status = %q, want pending", public.Status)
	}
	if public.Duration != 24 {
		t.Errorf("duration = %d, want default 24", public.Duration)
	}
	if !public.ExpiresAt.Equal(testStart.Add(24 * time.Hour)) {
		t.Errorf("expiresAt = %v", public.ExpiresAt)
	}
	if public.CreatorUsername != models.CreatorAnonymous {
		t.Errorf("creator = %q, want %q", public.CreatorUsername, models.CreatorAnonymous)
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", f.notifier.count())
	}

	admin := f.createEvent(t, 5000, true)
	if admin.Status != models.StatusApproved || admin.ApprovedAt == nil {
		t.Errorf("admin event should start approved, got %+v", admin.Moderation)
	}
	if admin.Duration != 720 {
		t.Errorf("duration = %d, want clamp to 720", admin.Duration)
	}
	if admin.CreatorUsername != models.CreatorAdministrator {
		t.Errorf("creator = %q", admin.CreatorUsername)
	}
	if f.notifier.count() != 1 {
		t.Error("admin events must not ask for moderation")
	}
}

func TestCreateEventValidatesFields(t *testing.T) {
	f := newEventFixture(t)
	_, err := f.events.CreateEvent(context.Background(), &dto.CreateEventRequest{
		Title: "  ", Date: "2025-09-02", Time: "18:00", Location: "Hall",
	}, false)
	if !apperrors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestPublicListVisibilityWindow(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()

	pending := f.createEvent(t, 1, false)
	approved := f.createEvent(t, 1, true)

	ids := publicIDs(t, f)
	if ids[pending.ID] {
		t.Error("pending event must not be public")
	}
	if !ids[approved.ID] {
		t.Error("approved event must be public")
	}

	// ends after 1h, stays listed through the 72h grace
	f.clock.Advance(73 * time.Hour)
	if !publicIDs(t, f)[approved.ID] {
		t.Error("event should be visible exactly at expiry + 72h")
	}
	f.clock.Advance(time.Second)
	if publicIDs(t, f)[approved.ID] {
		t.Error("event should be hidden once past expiry + 72h")
	}

	all, err := f.events.ListAllEvents(ctx, "")
	if err != nil {
		t.Fatalf("ListAllEvents: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin list = %d events, want 2", len(all))
	}
	pendingOnly, _ := f.events.ListAllEvents(ctx, models.StatusPending)
	if len(pendingOnly) != 1 || pendingOnly[0].ID != pending.ID {
		t.Errorf("pending filter = %+v", pendingOnly)
	}
}

func TestLegacyEventWithoutStatusIsPublic(t *testing.T) {
	f := newEventFixture(t)
	err := f.store.WithTransaction(context.Background(), func(tx *repositories.Tx) error {
		e := &models.Event{ID: "legacy", Title: "Old", Duration: 24, CreatedAt: testStart}
		e.ComputeExpiry()
		tx.InsertEvent(e)
		return nil
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !publicIDs(t, f)["legacy"] {
		t.Error("events without a status count as approved")
	}
}

func TestJoinTwiceThenLeave(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 2, true)
	req := &dto.JoinEventRequest{UserID: "101", UserName: "Ann"}

	first, err := f.events.JoinEvent(ctx, event.ID, req)
	if err != nil {
		t.Fatalf("JoinEvent: %v", err)
	}
	if !first.Changed || first.Participants != 1 {
		t.Errorf("first join = %+v", first)
	}

	second, err := f.events.JoinEvent(ctx, event.ID, req)
	if err != nil {
		t.Fatalf("JoinEvent again: %v", err)
	}
	if second.Changed || second.Participants != 1 {
		t.Errorf("second join = %+v, want unchanged with 1 participant", second)
	}

	messages, err := f.chat.GetMessages(ctx, event.ID, MessageFilter{})
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("transcript has %d messages, want one welcome line", len(messages))
	}
	if messages[0].Type != models.ChatMessageTypeSystem || messages[0].Text != "👋 Ann joined the event" {
		t.Errorf("welcome message = %+v", messages[0])
	}

	joined, _ := f.events.IsParticipant(ctx, event.ID, "101")
	if !joined {
		t.Error("IsParticipant should be true after joining")
	}

	left, err := f.events.LeaveEvent(ctx, event.ID, "101")
	if err != nil {
		t.Fatalf("LeaveEvent: %v", err)
	}
	if !left.Changed || left.Participants != 0 {
		t.Errorf("leave = %+v", left)
	}

	roster, _ := f.events.GetParticipants(ctx, event.ID)
	if len(roster) != 0 {
		t.Errorf("roster = %+v, want empty", roster)
	}
	got, _ := f.events.GetEventByID(ctx, event.ID)
	if got.Participants != 0 {
		t.Errorf("participant count = %d, want 0", got.Participants)
	}
}

func TestParticipantCountMatchesRoster(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 2, true)

	ops := []struct {
		join bool
		user models.UserID
	}{
		{true, "1"}, {true, "2"}, {true, "1"}, {false, "3"}, {true, "3"},
		{false, "2"}, {false, "2"}, {true, "4"}, {false, "1"}, {true, "2"},
	}
	for i, op := range ops {
		var err error
		if op.join {
			_, err = f.events.JoinEvent(ctx, event.ID, &dto.JoinEventRequest{UserID: op.user})
		} else {
			_, err = f.events.LeaveEvent(ctx, event.ID, op.user)
		}
		if err != nil {
			t.Fatalf("op %d: %v", i, err)
		}

		roster, _ := f.events.GetParticipants(ctx, event.ID)
		got, _ := f.events.GetEventByID(ctx, event.ID)
		if got.Participants != len(roster) {
			t.Fatalf("after op %d count = %d, roster = %d", i, got.Participants, len(roster))
		}
	}
}

func TestJoinUnknownEvent(t *testing.T) {
	f := newEventFixture(t)
	_, err := f.events.JoinEvent(context.Background(), "missing", &dto.JoinEventRequest{UserID: "1"})
	if !apperrors.Is(err, apperrors.ErrResourceNotFound) || !apperrors.Is(err, apperrors.ErrEventNotFound) {
		t.Errorf("err = %v, want event not found", err)
	}
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 2, true)
	_, _ = f.events.JoinEvent(ctx, event.ID, &dto.JoinEventRequest{UserID: "1"})

	title, duration := "Chess", 10
	updated, err := f.events.UpdateEvent(ctx, event.ID, &dto.UpdateEventRequest{Title: &title, Duration: &duration})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if updated.Title != "Chess" || !updated.ExpiresAt.Equal(event.CreatedAt.Add(10*time.Hour)) {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Participants != 1 {
		t.Errorf("update must keep the participant count, got %d", updated.Participants)
	}

	if err := f.events.DeleteEvent(ctx, event.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if _, err := f.events.GetEventByID(ctx, event.ID); !apperrors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("deleted event still found: %v", err)
	}
	if _, err := f.chat.GetMessages(ctx, event.ID, MessageFilter{}); !apperrors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("transcript of deleted event still readable: %v", err)
	}
	if err := f.events.DeleteEvent(ctx, event.ID); !apperrors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestModerationSwitchOffApprovesSubmissions(t *testing.T) {
	f := newEventFixture(t)
	settings := NewSettingsService(f.store, zerolog.Nop())
	if _, err := settings.UpdateSettings(context.Background(), models.Settings{models.SettingModerationEnabled: "false"}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	event := f.createEvent(t, 1, false)
	if event.Status != models.StatusApproved {
		t.Errorf("status = %q, want approved while moderation is off", event.Status)
	}
	if f.notifier.count() != 0 {
		t.Error("no moderation request expected")
	}
}
