package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/jsonstore"
	"github.com/campushub/miniapp/internal/pkg/notify"
)

var testStart = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testStart}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) *repositories.Store {
	t.Helper()
	repo, err := jsonstore.NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	mirror := jsonstore.NewMirror(repo, zerolog.Nop())
	store, err := repositories.NewStore(context.Background(), mirror, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = mirror.Close(context.Background()) })
	return store
}

type notification struct {
	kind models.EntityType
	id   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) NotifyModerationAsync(kind models.EntityType, id string) {
	n.mu.Lock()
	n.sent = append(n.sent, notification{kind: kind, id: id})
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type sentMessage struct {
	chatID  int64
	text    string
	photo   string
	actions []notify.Action
}

type fakeTransport struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]error
}

func (f *fakeTransport) record(chatID int64, text, photo string, actions []notify.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[chatID]; ok {
		return err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, photo: photo, actions: actions})
	return nil
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string) error {
	return f.record(chatID, text, "", nil)
}

func (f *fakeTransport) SendTextWithActions(_ context.Context, chatID int64, text string, actions []notify.Action) error {
	return f.record(chatID, text, "", actions)
}

func (f *fakeTransport) SendPhoto(_ context.Context, chatID int64, path, caption string, actions []notify.Action) error {
	return f.record(chatID, caption, path, actions)
}

func (f *fakeTransport) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

// fileHeader builds a multipart.FileHeader the way gin hands it to controllers
func fileHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File[field][0]
}
