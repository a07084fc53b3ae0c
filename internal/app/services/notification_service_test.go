package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/notify"
)

type notificationFixture struct {
	*eventFixture
	transport *fakeTransport
	service   NotificationService
}

func newNotificationFixture(t *testing.T, adminChats ...int64) *notificationFixture {
	t.Helper()
	f := newEventFixture(t)
	transport := &fakeTransport{failFor: map[int64]error{}}
	moderation := NewModerationService(f.store, f.clock.Now, zerolog.Nop())
	service := NewNotificationService(f.store, nil, transport, moderation, nil,
		NotificationConfig{AdminChatIDs: adminChats}, f.clock.Now, zerolog.Nop())
	return &notificationFixture{eventFixture: f, transport: transport, service: service}
}

func TestBroadcastCountsAndDeactivatesBlockedContacts(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	for id := int64(1); id <= 4; id++ {
		if err := f.service.RegisterContact(ctx, models.Contact{ID: id, FirstName: fmt.Sprint("user", id)}); err != nil {
			t.Fatalf("RegisterContact: %v", err)
		}
	}
	f.transport.failFor[2] = fmt.Errorf("forbidden: %w", notify.ErrRecipientGone)
	f.transport.failFor[3] = errors.New("timeout")

	result, err := f.service.Broadcast(ctx, "Exam week starts Monday")
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if result.Total != 4 || result.Sent != 2 || result.Failed != 2 {
		t.Errorf("result = %+v, want total 4 sent 2 failed 2", result)
	}

	list, _ := f.service.ListContacts(ctx)
	if list.Source != ContactSourceFallback {
		t.Errorf("source = %q", list.Source)
	}
	for _, c := range list.Contacts {
		if c.ID == 2 && c.Active {
			t.Error("contact that blocked the bot should be deactivated")
		}
		if c.ID == 3 && !c.Active {
			t.Error("a transient failure must not deactivate the contact")
		}
	}

	second, _ := f.service.Broadcast(ctx, "again")
	if second.Total != 3 {
		t.Errorf("second broadcast total = %d, want 3", second.Total)
	}

	// returning to the bot reactivates the contact
	_ = f.service.RegisterContact(ctx, models.Contact{ID: 2})
	third, _ := f.service.Broadcast(ctx, "welcome back")
	if third.Total != 4 {
		t.Errorf("third broadcast total = %d, want 4", third.Total)
	}
}

func TestBroadcastRejectsEmptyText(t *testing.T) {
	f := newNotificationFixture(t)
	if _, err := f.service.Broadcast(context.Background(), "  "); err == nil {
		t.Error("empty broadcast should fail")
	}
}

func TestNotifyModerationReachesModerators(t *testing.T) {
	f := newNotificationFixture(t, 1000)
	ctx := context.Background()

	_ = f.service.RegisterContact(ctx, models.Contact{ID: 7, Username: "mod"})
	if err := f.service.PromoteContact(ctx, 7); err != nil {
		t.Fatalf("PromoteContact: %v", err)
	}
	_ = f.service.RegisterContact(ctx, models.Contact{ID: 8, Username: "student"})

	event := f.createEvent(t, 3, false)
	if err := f.service.NotifyModeration(ctx, models.EntityEvent, event.ID); err != nil {
		t.Fatalf("NotifyModeration: %v", err)
	}

	sent := f.transport.messages()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2 (config chat and promoted contact)", len(sent))
	}
	recipients := map[int64]bool{}
	for _, m := range sent {
		recipients[m.chatID] = true
		if len(m.actions) != 2 {
			t.Fatalf("actions = %+v", m.actions)
		}
		p, err := notify.DecodePayload(m.actions[0].Data)
		if err != nil || p.Type != "event" || p.ID != event.ID || p.Action != "approve" {
			t.Errorf("approve payload = %+v, %v", p, err)
		}
	}
	if !recipients[1000] || !recipients[7] || recipients[8] {
		t.Errorf("recipients = %v", recipients)
	}
}

func TestHandleCallbackModerates(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 3, false)

	data := notify.EncodePayload(notify.Payload{Type: "event", ID: event.ID, Action: "approve"})
	result, err := f.service.HandleCallback(ctx, data)
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if !result.Changed || result.Status != models.StatusApproved {
		t.Errorf("result = %+v", result)
	}

	if _, err := f.service.HandleCallback(ctx, "garbage"); err == nil {
		t.Error("malformed callback should fail")
	}
}

func TestRegisterContactKeepsFirstSeen(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	_ = f.service.RegisterContact(ctx, models.Contact{ID: 5, FirstName: "Ann"})
	f.clock.Advance(48 * time.Hour)
	_ = f.service.RegisterContact(ctx, models.Contact{ID: 5, FirstName: "Anna"})

	err := f.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		contacts := tx.Contacts()
		if len(contacts) != 1 {
			t.Fatalf("contacts = %+v", contacts)
		}
		c := contacts[0]
		if !c.FirstSeen.Equal(testStart) || c.FirstName != "Anna" || !c.LastSeen.After(c.FirstSeen) {
			t.Errorf("contact = %+v", c)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
