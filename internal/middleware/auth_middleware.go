package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/auth"
)

// AdminContextKey marks requests that passed the admin gate
const AdminContextKey = "isAdmin"

// TokenValidator checks admin tokens
type TokenValidator interface {
	ValidateToken(token string) error
}

// AuthMiddleware guards admin routes
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// AdminAuth rejects requests without a valid admin token
func (m *AuthMiddleware) AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := RequestToken(c)
		if token == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Pass the admin token as ?token= or an Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		if err := m.validator.ValidateToken(token); err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			if apperrors.Is(err, apperrors.ErrTokenExpired) {
				errorCode = dto.ErrorCodeExpiredToken
			}
			errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed").WithDetails(apperrors.Message(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Set(AdminContextKey, true)
		c.Next()
	}
}

// OptionalAdmin marks the request as admin when a valid token is present and
// lets it through either way
func (m *AuthMiddleware) OptionalAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := RequestToken(c); token != "" && token != "public" && m.validator.ValidateToken(token) == nil {
			c.Set(AdminContextKey, true)
		}
		c.Next()
	}
}

// IsAdmin reports whether the admin gate accepted the request
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(AdminContextKey)
}

// RequestToken reads the token from the query string or the Authorization header
func RequestToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.Query("token")); token != "" {
		return token
	}

	token, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return ""
	}
	return token
}
