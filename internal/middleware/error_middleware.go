package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
)

// --- Central Error Handling Middleware/Function ---

// HandleAPIError maps service errors to status codes and the error envelope
func HandleAPIError(c *gin.Context, err error) {
	status, detail := errorDetail(err)

	if status >= http.StatusInternalServerError {
		l := logger(c)
		l.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func errorDetail(err error) (int, *dto.ErrorDetail) {
	message := apperrors.Message(err)

	var status int
	var detail *dto.ErrorDetail

	// Checked in order: a wrong admin password is both PermissionDenied and InvalidCredentials
	switch {
	case errors.Is(err, apperrors.ErrUserBlocked):
		status, detail = http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeUserBlocked, message).WithSeverity(dto.ErrorSeverityWarning)
	case errors.Is(err, apperrors.ErrUserMuted):
		status, detail = http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeUserMuted, message).WithSeverity(dto.ErrorSeverityWarning)
	case errors.Is(err, apperrors.ErrPermissionDenied):
		status, detail = http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, message)
	case errors.Is(err, apperrors.ErrResourceNotFound):
		status, detail = http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message)
	case errors.Is(err, apperrors.ErrValidationFailed):
		status, detail = http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message)
	case apperrors.Is(err, apperrors.ErrBadRequest, apperrors.ErrUnknownAction, apperrors.ErrUnknownEntityType):
		status, detail = http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, message)
	case errors.Is(err, apperrors.ErrAlreadyModerated):
		status, detail = http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeAlreadyModerated, message)
	case errors.Is(err, apperrors.ErrTokenExpired):
		status, detail = http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, message)
	case errors.Is(err, apperrors.ErrTokenInvalid):
		status, detail = http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, message)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		status, detail = http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, message)
	case errors.Is(err, apperrors.ErrIOFailure):
		status, detail = http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Storage failure").WithSeverity(dto.ErrorSeverityCritical)
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").WithSeverity(dto.ErrorSeverityCritical)
	}

	var ce *apperrors.CustomError
	if errors.As(err, &ce) && ce.Details != nil {
		if field, ok := ce.Details["field"].(string); ok {
			detail = detail.WithField(field)
		}
	}
	return status, detail
}

// HandleBindError answers a request whose body or form failed to bind
func HandleBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
}
