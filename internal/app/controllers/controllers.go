// Package controllers holds the gin handlers of the HTTP API.
package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/services"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/helpers"
	"github.com/campushub/miniapp/internal/middleware"
)

func respond(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, dto.NewSuccessResponse(data))
}

func ok(ctx *gin.Context, data interface{}) {
	respond(ctx, http.StatusOK, data)
}

// parseMessageFilter reads the optional since and after query parameters
func parseMessageFilter(ctx *gin.Context) (services.MessageFilter, bool) {
	var query dto.GetMessagesRequest
	if err := ctx.ShouldBindQuery(&query); err != nil {
		middleware.HandleBindError(ctx, err)
		return services.MessageFilter{}, false
	}

	filter := services.MessageFilter{AfterID: strings.TrimSpace(query.After)}
	if query.Since == "" {
		return filter, true
	}

	since, err := helpers.ParseTimestamp(query.Since)
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("since", err.Error()))
		return services.MessageFilter{}, false
	}
	filter.Since = &since
	return filter, true
}

// userIDParam reads and normalises the userId path parameter
func userIDParam(ctx *gin.Context) (models.UserID, bool) {
	userID := models.NormalizeUserID(ctx.Param("userId"))
	if userID.IsZero() {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("userId", "userId is required"))
		return "", false
	}
	return userID, true
}

// paginated wraps items in a page when the client asked for one
func paginated[T any](ctx *gin.Context, items []T) interface{} {
	if ctx.Query("page") == "" {
		return items
	}
	page, size := helpers.ParsePaginationParams(ctx)
	slice, info := helpers.Paginate(items, page, size)
	return dto.PaginatedResponse{Items: slice, Pagination: info}
}
