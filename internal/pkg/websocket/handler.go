package websocket

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
)

// ScopeChecker reports whether a chat scope can be joined
type ScopeChecker func(ctx context.Context, scope string) error

// Handler for WebSocket connections
type Handler struct {
	hub        *Hub
	checkScope ScopeChecker
	logger     zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, checkScope ScopeChecker, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		checkScope: checkScope,
		logger:     logger,
	}
}

// HandleEventConnection godoc
// @Summary Open the live channel of an event chat
// @Description Upgrades to a WebSocket that receives new messages, typing changes and roster counts
// @Tags events, websocket
// @Param id path string true "Event ID"
// @Param userId query string true "User ID"
// @Param userName query string false "Display name"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /events/{id}/ws [get]
func (h *Handler) HandleEventConnection(c *gin.Context) {
	h.serve(c, c.Param("id"))
}

// HandleGlobalConnection godoc
// @Summary Open the live channel of the sitewide chat
// @Tags chat, websocket
// @Param userId query string true "User ID"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Router /chat/ws [get]
func (h *Handler) HandleGlobalConnection(c *gin.Context) {
	h.serve(c, GlobalScope)
}

func (h *Handler) serve(c *gin.Context, scope string) {
	userID := models.NormalizeUserID(c.Query("userId"))
	if userID.IsZero() {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "userId is required").WithField("userId")
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	if h.checkScope != nil {
		if err := h.checkScope(c.Request.Context(), scope); err != nil {
			status, code := http.StatusInternalServerError, dto.ErrorCodeInternalServer
			if errors.Is(err, apperrors.ErrResourceNotFound) {
				status, code = http.StatusNotFound, dto.ErrorCodeResourceNotFound
			}
			c.JSON(status, dto.NewErrorResponse(dto.NewErrorDetail(code, apperrors.Message(err))))
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("scope", scope).Str("userID", userID.String()).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:      h.hub,
		conn:     conn,
		send:     make(chan []byte, broadcastBuffer),
		userID:   userID,
		userName: strings.TrimSpace(c.Query("userName")),
		scope:    scope,
		logger:   h.logger,
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.stop:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Str("scope", scope).
		Str("userID", userID.String()).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
