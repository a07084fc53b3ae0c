package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
)

func TestHandleAPIErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
		field  string
	}{
		{"not found", apperrors.NewResourceNotFoundError("Event not found: 1"), http.StatusNotFound, dto.ErrorCodeResourceNotFound, ""},
		{"validation", apperrors.NewValidationError("title", "title is required"), http.StatusBadRequest, dto.ErrorCodeValidationFailed, "title"},
		{"muted", apperrors.NewCustomError(errors.Join(apperrors.ErrPermissionDenied, apperrors.ErrUserMuted), "muted"), http.StatusForbidden, dto.ErrorCodeUserMuted, ""},
		{"blocked", apperrors.NewCustomError(errors.Join(apperrors.ErrPermissionDenied, apperrors.ErrUserBlocked), "blocked"), http.StatusForbidden, dto.ErrorCodeUserBlocked, ""},
		{"wrong password", apperrors.NewCustomError(errors.Join(apperrors.ErrPermissionDenied, apperrors.ErrInvalidCredentials), "wrong password"), http.StatusForbidden, dto.ErrorCodeForbidden, ""},
		{"already moderated", apperrors.NewCustomError(apperrors.ErrAlreadyModerated, "already approved"), http.StatusConflict, dto.ErrorCodeAlreadyModerated, ""},
		{"unknown action", apperrors.NewCustomError(apperrors.ErrUnknownAction, "publish"), http.StatusBadRequest, dto.ErrorCodeInvalidRequest, ""},
		{"expired token", fmt.Errorf("check: %w", apperrors.ErrTokenExpired), http.StatusUnauthorized, dto.ErrorCodeExpiredToken, ""},
		{"io failure", apperrors.NewIOError("save failed", errors.New("disk full")), http.StatusInternalServerError, dto.ErrorCodeDatabaseError, ""},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var resp dto.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Success || resp.Error == nil {
				t.Fatalf("resp = %+v", resp)
			}
			if resp.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Error.Code, tt.code)
			}
			if resp.Error.Field != tt.field {
				t.Errorf("field = %q, want %q", resp.Error.Field, tt.field)
			}
			if !c.IsAborted() {
				t.Error("context not aborted")
			}
		})
	}
}

func TestInternalErrorsHideDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleAPIError(c, errors.New("password=hunter2"))

	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Message != "Internal server error" {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

func TestErrorSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want dto.ErrorSeverity
	}{
		{"not found", apperrors.NewResourceNotFoundError("missing"), dto.ErrorSeverityError},
		{"muted", apperrors.NewCustomError(apperrors.ErrUserMuted, "muted"), dto.ErrorSeverityWarning},
		{"blocked", apperrors.NewCustomError(apperrors.ErrUserBlocked, "blocked"), dto.ErrorSeverityWarning},
		{"io failure", apperrors.NewIOError("save failed", errors.New("disk full")), dto.ErrorSeverityCritical},
		{"unexpected", errors.New("boom"), dto.ErrorSeverityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, detail := errorDetail(tt.err)
			if detail.Severity != tt.want {
				t.Errorf("severity = %s, want %s", detail.Severity, tt.want)
			}
		})
	}
}

func TestServerErrorsUseRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	newContext := func() *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set(loggerKey, zerolog.New(&buf))
		return c
	}

	HandleAPIError(newContext(), apperrors.NewResourceNotFoundError("missing"))
	if buf.Len() != 0 {
		t.Errorf("client errors should not be logged, got %s", buf.String())
	}

	HandleAPIError(newContext(), errors.New("boom"))
	if !strings.Contains(buf.String(), "Request failed") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("server error not logged: %q", buf.String())
	}
}
