package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/notify"
)

type apiCall struct {
	method string
	params map[string]interface{}
}

// fakeAPI answers Bot API requests and records them
type fakeAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	blocked map[string]bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	params := map[string]interface{}{}
	_ = json.NewDecoder(r.Body).Decode(&params)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, params: params})
	blocked := f.blocked[fmt.Sprint(params["chat_id"])]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case blocked:
		fmt.Fprint(w, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)
	case method == "answerCallbackQuery" || method == "deleteMessage":
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	default:
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)
	}
}

func (f *fakeAPI) byMethod(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

type fakeHandler struct {
	registered []models.Contact
	promoted   []int64
	callbacks  []string
	result     *dto.ModerationResult
	err        error
}

func (h *fakeHandler) RegisterContact(_ context.Context, c models.Contact) error {
	h.registered = append(h.registered, c)
	return nil
}

func (h *fakeHandler) PromoteContact(_ context.Context, id int64) error {
	h.promoted = append(h.promoted, id)
	return nil
}

func (h *fakeHandler) HandleCallback(_ context.Context, data string) (*dto.ModerationResult, error) {
	h.callbacks = append(h.callbacks, data)
	return h.result, h.err
}

type staticPassword string

func (p staticPassword) CheckPassword(password string) bool { return password == string(p) }

func newTestBot(t *testing.T, handler Handler) (*Bot, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{blocked: map[string]bool{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	bot, err := NewBot(Config{Token: "test", URL: srv.URL, Offline: true, Synchronous: true, WebAppURL: "https://campus.example"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	if handler != nil {
		bot.Register(handler, staticPassword("s3cret"))
	}
	return bot, api
}

func commandUpdate(chatID int64, text string) tele.Update {
	return tele.Update{Message: &tele.Message{
		ID:     10,
		Text:   text,
		Sender: &tele.User{ID: chatID, FirstName: "Ann", Username: "ann"},
		Chat:   &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
	}}
}

func TestNewBotRequiresToken(t *testing.T) {
	if _, err := NewBot(Config{Offline: true}, zerolog.Nop()); err == nil {
		t.Error("expected an error without a token")
	}
}

func TestSendTextWithActions(t *testing.T) {
	bot, api := newTestBot(t, nil)

	data := notify.EncodePayload(notify.Payload{Type: "event", ID: "1", Action: "approve"})
	err := bot.SendTextWithActions(context.Background(), 42, "New event", []notify.Action{{Label: "Approve", Data: data}})
	if err != nil {
		t.Fatalf("SendTextWithActions: %v", err)
	}

	sent := api.byMethod("sendMessage")
	if len(sent) != 1 {
		t.Fatalf("sendMessage calls = %d", len(sent))
	}
	if sent[0].params["chat_id"] != "42" || sent[0].params["text"] != "New event" {
		t.Errorf("params = %v", sent[0].params)
	}
	markup, _ := sent[0].params["reply_markup"].(string)
	if !strings.Contains(markup, `callback_data`) || !strings.Contains(markup, "Approve") {
		t.Errorf("reply_markup = %s", markup)
	}
}

func TestBlockedRecipientIsGone(t *testing.T) {
	bot, api := newTestBot(t, nil)
	api.blocked["7"] = true

	err := bot.SendText(context.Background(), 7, "hello")
	if !errors.Is(err, notify.ErrRecipientGone) {
		t.Errorf("err = %v, want ErrRecipientGone", err)
	}
	if err := bot.SendText(context.Background(), 8, "hello"); err != nil {
		t.Errorf("unblocked chat err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bot.SendText(ctx, 8, "late"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled send err = %v", err)
	}
}

func TestStartRegistersContact(t *testing.T) {
	handler := &fakeHandler{}
	bot, api := newTestBot(t, handler)

	bot.ProcessUpdate(commandUpdate(5, "/start"))

	if len(handler.registered) != 1 || handler.registered[0].ID != 5 || handler.registered[0].Username != "ann" {
		t.Fatalf("registered = %+v", handler.registered)
	}
	sent := api.byMethod("sendMessage")
	if len(sent) != 1 {
		t.Fatalf("replies = %d", len(sent))
	}
	if markup, _ := sent[0].params["reply_markup"].(string); !strings.Contains(markup, "campus.example") {
		t.Errorf("welcome should carry the web app button, markup %s", markup)
	}
}

func TestAdminCommand(t *testing.T) {
	handler := &fakeHandler{}
	bot, api := newTestBot(t, handler)

	bot.ProcessUpdate(commandUpdate(9, "/admin wrong"))
	if len(handler.promoted) != 0 {
		t.Fatalf("promoted with a wrong password: %v", handler.promoted)
	}

	bot.ProcessUpdate(commandUpdate(9, "/admin s3cret"))
	if len(handler.promoted) != 1 || handler.promoted[0] != 9 {
		t.Errorf("promoted = %v", handler.promoted)
	}
	if len(api.byMethod("deleteMessage")) != 2 {
		t.Error("password messages should be deleted")
	}
}

func TestCallbackModeratesAndEdits(t *testing.T) {
	handler := &fakeHandler{result: &dto.ModerationResult{Type: models.EntityEvent, ID: "1", Status: models.StatusApproved, Changed: true}}
	bot, api := newTestBot(t, handler)

	data := notify.EncodePayload(notify.Payload{Type: "event", ID: "1", Action: "approve"})
	bot.ProcessUpdate(tele.Update{Callback: &tele.Callback{
		ID:     "cb1",
		Sender: &tele.User{ID: 3},
		Data:   data,
		Message: &tele.Message{
			ID:   77,
			Text: "New event",
			Chat: &tele.Chat{ID: 3},
		},
	}})

	if len(handler.callbacks) != 1 || handler.callbacks[0] != data {
		t.Fatalf("callbacks = %v", handler.callbacks)
	}
	answers := api.byMethod("answerCallbackQuery")
	if len(answers) != 1 || answers[0].params["text"] != "✅ Approved" {
		t.Errorf("answers = %+v", answers)
	}
	edits := api.byMethod("editMessageText")
	if len(edits) != 1 || !strings.HasSuffix(fmt.Sprint(edits[0].params["text"]), "✅ Approved") {
		t.Errorf("edits = %+v", edits)
	}
}

func TestCallbackFailureAlerts(t *testing.T) {
	handler := &fakeHandler{err: apperrors.ErrAlreadyModerated}
	bot, api := newTestBot(t, handler)

	bot.ProcessUpdate(tele.Update{Callback: &tele.Callback{
		ID:      "cb2",
		Sender:  &tele.User{ID: 3},
		Data:    "{}",
		Message: &tele.Message{ID: 1, Text: "x", Chat: &tele.Chat{ID: 3}},
	}})

	answers := api.byMethod("answerCallbackQuery")
	if len(answers) != 1 || answers[0].params["show_alert"] != true {
		t.Errorf("answers = %+v", answers)
	}
	if len(api.byMethod("editMessageText")) != 0 {
		t.Error("a failed decision must not edit the message")
	}
}
