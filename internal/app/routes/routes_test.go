package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/controllers"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/app/services"
	"github.com/campushub/miniapp/internal/middleware"
	"github.com/campushub/miniapp/internal/pkg/filestorage"
	"github.com/campushub/miniapp/internal/pkg/jsonstore"
	"github.com/campushub/miniapp/internal/pkg/presence"
	"github.com/campushub/miniapp/internal/pkg/websocket"
)

const adminPassword = "s3cret"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testServer struct {
	router *gin.Engine
	clock  *testClock
	token  string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators: %v", err)
	}

	repo, err := jsonstore.NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	mirror := jsonstore.NewMirror(repo, zerolog.Nop())
	t.Cleanup(func() { _ = mirror.Close(context.Background()) })
	store, err := repositories.NewStore(context.Background(), mirror, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	files, err := filestorage.NewLocalStorage(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	clock := &testClock{now: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
	log := zerolog.Nop()
	tracker := presence.NewTracker(presence.DefaultTTL, clock.Now)
	rules := services.DefaultEventRules()

	moderation := services.NewModerationService(store, clock.Now, log)
	notifications := services.NewNotificationService(store, nil, nil, moderation, files, services.NotificationConfig{}, clock.Now, log)
	t.Cleanup(notifications.Wait)
	events := services.NewEventService(store, tracker, nil, notifications, rules, clock.Now, log)
	chat := services.NewChatService(store, tracker, nil, rules, clock.Now, log)
	admin := services.NewAdminService(store, nil, files, nil, services.AdminConfig{Password: adminPassword}, log)

	router := gin.New()
	SetupRouter(router, Controllers{
		Event:    controllers.NewEventController(events, moderation),
		Chat:     controllers.NewChatController(chat),
		Media:    controllers.NewMediaController(services.NewMediaService(store, files, notifications, services.MediaConfig{}, clock.Now, log), moderation),
		Schedule: controllers.NewScheduleController(services.NewScheduleService(store, clock.Now, log)),
		Settings: controllers.NewSettingsController(services.NewSettingsService(store, log), nil),
		Admin:    controllers.NewAdminController(admin, services.NewRestrictionService(store, clock.Now, log), notifications),
		WS:       websocket.NewHandler(websocket.NewHub(log), nil, log),
	}, middleware.NewAuthMiddleware(admin))

	return &testServer{router: router, clock: clock, token: services.LegacyAdminToken}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func (s *testServer) createAdminEvent(t *testing.T, duration int) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/admin/events?token="+s.token, map[string]interface{}{
		"title":    "Board games",
		"date":     "2025-09-02",
		"time":     "18:00",
		"location": "Library",
		"duration": duration,
	})
	if code != http.StatusCreated {
		t.Fatalf("create event: status %d, error %+v", code, env.Error)
	}
	var event struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, env, &event)
	if event.Status != "approved" {
		t.Fatalf("admin event status = %q, want approved", event.Status)
	}
	return event.ID
}

func (s *testServer) publicEventIDs(t *testing.T) map[string]bool {
	t.Helper()
	code, env := s.do(t, http.MethodGet, "/api/events", nil)
	if code != http.StatusOK {
		t.Fatalf("list events: status %d", code)
	}
	var list struct {
		Events []struct {
			ID string `json:"id"`
		} `json:"events"`
	}
	decodeData(t, env, &list)
	ids := make(map[string]bool, len(list.Events))
	for _, e := range list.Events {
		ids[e.ID] = true
	}
	return ids
}

func TestAdminLogin(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": "wrong"})
	if code != http.StatusForbidden || env.Success {
		t.Errorf("wrong password: status %d, success %v", code, env.Success)
	}

	code, env = s.do(t, http.MethodPost, "/api/admin/login", map[string]string{})
	if code != http.StatusBadRequest {
		t.Errorf("missing password: status %d, want 400", code)
	}

	code, env = s.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": adminPassword})
	if code != http.StatusOK {
		t.Fatalf("login: status %d, error %+v", code, env.Error)
	}
	var resp struct {
		Token string `json:"token"`
	}
	decodeData(t, env, &resp)
	if resp.Token != s.token {
		t.Errorf("token = %q, want %q", resp.Token, s.token)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/admin/events", nil)
	if code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "AUTH_008" {
		t.Errorf("no token: status %d, error %+v", code, env.Error)
	}

	code, env = s.do(t, http.MethodGet, "/api/admin/events?token=forged", nil)
	if code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "AUTH_005" {
		t.Errorf("forged token: status %d, error %+v", code, env.Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("bearer token: status %d, body %s", w.Code, w.Body.String())
	}
}

func TestAdminEventExpiresFromPublicList(t *testing.T) {
	s := newTestServer(t)
	id := s.createAdminEvent(t, 1)

	if !s.publicEventIDs(t)[id] {
		t.Fatal("approved event missing from public list")
	}

	s.clock.Advance(73*time.Hour + time.Minute)
	if s.publicEventIDs(t)[id] {
		t.Error("event still listed more than 73h after creation")
	}

	code, _ := s.do(t, http.MethodGet, "/api/events/"+id, nil)
	if code != http.StatusOK {
		t.Errorf("get expired event: status %d, want 200", code)
	}
}

func TestPublicSubmissionNeedsApproval(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/events", map[string]interface{}{
		"title":    "Open mic",
		"date":     "2025-09-03",
		"time":     "20:00",
		"location": "Hall B",
	})
	if code != http.StatusCreated {
		t.Fatalf("create: status %d, error %+v", code, env.Error)
	}
	var event struct {
		ID              string `json:"id"`
		Status          string `json:"status"`
		CreatorUsername string `json:"creatorUsername"`
	}
	decodeData(t, env, &event)
	if event.Status != "pending" || event.CreatorUsername != "Anonymous" {
		t.Errorf("event = %+v", event)
	}
	if s.publicEventIDs(t)[event.ID] {
		t.Fatal("pending event is public")
	}

	code, _ = s.do(t, http.MethodPost, "/api/admin/events/"+event.ID+"/approve?token="+s.token, nil)
	if code != http.StatusOK {
		t.Fatalf("approve: status %d", code)
	}
	if !s.publicEventIDs(t)[event.ID] {
		t.Error("approved event not public")
	}

	code, env = s.do(t, http.MethodPost, "/api/admin/events/"+event.ID+"/reject?token="+s.token, nil)
	if code != http.StatusConflict || env.Error == nil || env.Error.Code != "RES_005" {
		t.Errorf("reject after approve: status %d, error %+v", code, env.Error)
	}

	code, _ = s.do(t, http.MethodPost, "/api/admin/events/"+event.ID+"/publish?token="+s.token, nil)
	if code != http.StatusBadRequest {
		t.Errorf("unknown action: status %d, want 400", code)
	}
}

func TestCreateEventValidation(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/events", map[string]interface{}{
		"title":    "   ",
		"date":     "2025-09-03",
		"time":     "20:00",
		"location": "Hall B",
	})
	if code != http.StatusBadRequest || env.Error == nil {
		t.Errorf("blank title: status %d, error %+v", code, env.Error)
	}
}

func TestJoinTwiceThenLeave(t *testing.T) {
	s := newTestServer(t)
	id := s.createAdminEvent(t, 24)

	type joinResult struct {
		Joined       bool `json:"joined"`
		Changed      bool `json:"changed"`
		Participants int  `json:"participants"`
	}
	join := func() joinResult {
		code, env := s.do(t, http.MethodPost, "/api/events/"+id+"/join", map[string]interface{}{"userId": 42, "userName": "Ann"})
		if code != http.StatusOK {
			t.Fatalf("join: status %d, error %+v", code, env.Error)
		}
		var r joinResult
		decodeData(t, env, &r)
		return r
	}

	if r := join(); !r.Joined || !r.Changed || r.Participants != 1 {
		t.Errorf("first join = %+v", r)
	}
	if r := join(); !r.Joined || r.Changed || r.Participants != 1 {
		t.Errorf("second join = %+v", r)
	}

	code, env := s.do(t, http.MethodGet, "/api/events/"+id+"/joined?userId=42", nil)
	var joined struct {
		Joined bool `json:"joined"`
	}
	decodeData(t, env, &joined)
	if code != http.StatusOK || !joined.Joined {
		t.Errorf("joined check: status %d, %+v", code, joined)
	}

	code, env = s.do(t, http.MethodGet, "/api/events/"+id+"/messages", nil)
	var transcript struct {
		Messages []struct {
			Type string `json:"type"`
		} `json:"messages"`
	}
	decodeData(t, env, &transcript)
	if code != http.StatusOK || len(transcript.Messages) != 1 || transcript.Messages[0].Type != "system" {
		t.Errorf("messages after joins: status %d, %+v", code, transcript.Messages)
	}

	code, env = s.do(t, http.MethodPost, "/api/events/"+id+"/leave", map[string]interface{}{"userId": "42"})
	var left joinResult
	decodeData(t, env, &left)
	if code != http.StatusOK || left.Joined || left.Participants != 0 {
		t.Errorf("leave: status %d, %+v", code, left)
	}

	code, _ = s.do(t, http.MethodPost, "/api/events/missing/join", map[string]interface{}{"userId": 1})
	if code != http.StatusNotFound {
		t.Errorf("join unknown event: status %d, want 404", code)
	}
}

func TestMutedUserCannotPost(t *testing.T) {
	s := newTestServer(t)
	id := s.createAdminEvent(t, 24)

	code, _ := s.do(t, http.MethodPost, "/api/admin/events/"+id+"/restrictions/42/mute?token="+s.token, map[string]int{"minutes": 10})
	if code != http.StatusOK {
		t.Fatalf("mute: status %d", code)
	}

	code, env := s.do(t, http.MethodPost, "/api/events/"+id+"/messages", map[string]interface{}{"userId": 42, "text": "hello"})
	if code != http.StatusForbidden || env.Error == nil || env.Error.Code != "CHAT_002" {
		t.Errorf("muted post: status %d, error %+v", code, env.Error)
	}

	code, _ = s.do(t, http.MethodPost, "/api/events/"+id+"/messages", map[string]interface{}{"userId": 7, "text": "hello"})
	if code != http.StatusCreated {
		t.Errorf("other user post: status %d, want 201", code)
	}

	s.clock.Advance(11 * time.Minute)
	code, env = s.do(t, http.MethodPost, "/api/events/"+id+"/messages", map[string]interface{}{"userId": "42", "text": "back"})
	if code != http.StatusCreated {
		t.Errorf("post after mute elapsed: status %d, error %+v", code, env.Error)
	}
}

func TestBlockedUserCannotPost(t *testing.T) {
	s := newTestServer(t)
	id := s.createAdminEvent(t, 24)

	code, _ := s.do(t, http.MethodPost, "/api/admin/events/"+id+"/restrictions/9/block?token="+s.token, nil)
	if code != http.StatusOK {
		t.Fatalf("block: status %d", code)
	}

	code, env := s.do(t, http.MethodPost, "/api/events/"+id+"/messages", map[string]interface{}{"userId": 9, "text": "hi"})
	if code != http.StatusForbidden || env.Error == nil || env.Error.Code != "CHAT_001" {
		t.Errorf("blocked post: status %d, error %+v", code, env.Error)
	}
}

func TestPollMessagesAfterLastSeen(t *testing.T) {
	s := newTestServer(t)
	id := s.createAdminEvent(t, 24)

	type message struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
	post := func(text string) message {
		code, env := s.do(t, http.MethodPost, "/api/events/"+id+"/messages", map[string]interface{}{"userId": 7, "text": text})
		if code != http.StatusCreated {
			t.Fatalf("post %s: status %d, error %+v", text, code, env.Error)
		}
		var m message
		decodeData(t, env, &m)
		return m
	}
	poll := func(query string) []message {
		code, env := s.do(t, http.MethodGet, "/api/events/"+id+"/messages?"+query, nil)
		if code != http.StatusOK {
			t.Fatalf("poll %s: status %d, error %+v", query, code, env.Error)
		}
		var list struct {
			Messages []message `json:"messages"`
		}
		decodeData(t, env, &list)
		return list.Messages
	}

	seen := post("one")
	post("two") // same clock reading as "one"

	if got := poll("after=" + seen.ID); len(got) != 1 || got[0].Text != "two" {
		t.Errorf("after=%s returned %+v", seen.ID, got)
	}
	code, env := s.do(t, http.MethodGet, "/api/events/"+id+"/messages?since=not-a-time", nil)
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Field != "since" {
		t.Errorf("bad since: status %d, error %+v", code, env.Error)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPut, "/api/admin/settings", map[string]string{"siteTitle": "Campus"})
	if code != http.StatusUnauthorized {
		t.Errorf("update without token: status %d, want 401", code)
	}

	code, env := s.do(t, http.MethodPut, "/api/admin/settings?token="+s.token, map[string]string{"siteTitle": "Campus"})
	if code != http.StatusOK {
		t.Fatalf("update: status %d, error %+v", code, env.Error)
	}

	code, env = s.do(t, http.MethodGet, "/api/settings", nil)
	var settings map[string]string
	decodeData(t, env, &settings)
	if code != http.StatusOK || settings["siteTitle"] != "Campus" {
		t.Errorf("settings: status %d, %v", code, settings)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/health", nil)
	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	decodeData(t, env, &health)
	if code != http.StatusOK || health.Status != "ok" || health.Database != "disabled" {
		t.Errorf("health: status %d, %+v", code, health)
	}
}
