package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/pkg/apperrors"
)

type stubValidator struct {
	valid   string
	expired string
}

func (v stubValidator) ValidateToken(token string) error {
	switch token {
	case v.valid:
		return nil
	case v.expired:
		return apperrors.ErrTokenExpired
	}
	return apperrors.ErrTokenInvalid
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := NewAuthMiddleware(stubValidator{valid: "good", expired: "old"})

	router := gin.New()
	report := func(c *gin.Context) {
		if IsAdmin(c) {
			c.String(http.StatusOK, "admin")
			return
		}
		c.String(http.StatusOK, "public")
	}
	router.GET("/admin", auth.AdminAuth(), report)
	router.GET("/open", auth.OptionalAdmin(), report)
	return router
}

func serve(router *gin.Engine, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAdminAuth(t *testing.T) {
	router := newAuthRouter()

	tests := []struct {
		name   string
		path   string
		header string
		status int
		code   string
	}{
		{"missing", "/admin", "", http.StatusUnauthorized, "AUTH_008"},
		{"query token", "/admin?token=good", "", http.StatusOK, ""},
		{"bearer header", "/admin", "Bearer good", http.StatusOK, ""},
		{"invalid", "/admin?token=bad", "", http.StatusUnauthorized, "AUTH_005"},
		{"expired", "/admin", "Bearer old", http.StatusUnauthorized, "AUTH_006"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.path, tt.header)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.code != "" && !strings.Contains(w.Body.String(), tt.code) {
				t.Errorf("body %s does not carry %s", w.Body.String(), tt.code)
			}
			if tt.status == http.StatusOK && w.Body.String() != "admin" {
				t.Errorf("body = %q, want admin", w.Body.String())
			}
		})
	}
}

func TestOptionalAdmin(t *testing.T) {
	router := newAuthRouter()

	for path, want := range map[string]string{
		"/open":              "public",
		"/open?token=public": "public",
		"/open?token=bad":    "public",
		"/open?token=good":   "admin",
	} {
		w := serve(router, path, "")
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Errorf("%s: status %d, body %q, want %q", path, w.Code, w.Body.String(), want)
		}
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger(zerolog.Nop()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(router, "/", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("X-Request-ID = %q, want the caller's id", got)
	}
}
