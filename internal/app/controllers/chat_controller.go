package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/services"
	"github.com/campushub/miniapp/internal/middleware"
)

// ChatController handles the event chats and the sitewide chat
type ChatController struct {
	chatService services.ChatService
}

// NewChatController creates a new ChatController
func NewChatController(chatService services.ChatService) *ChatController {
	return &ChatController{chatService: chatService}
}

// GetMessages returns the transcript of an event chat
// @Summary Get event chat messages
// @Tags chat
// @Produce json
// @Param id path string true "Event ID"
// @Param since query string false "RFC 3339 timestamp or unix milliseconds, inclusive"
// @Param after query string false "Last message ID the client has seen"
// @Success 200 {object} dto.APIResponse{data=dto.ChatMessageListResponse}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id}/messages [get]
func (c *ChatController) GetMessages(ctx *gin.Context) {
	filter, valid := parseMessageFilter(ctx)
	if !valid {
		return
	}

	messages, err := c.chatService.GetMessages(ctx, ctx.Param("id"), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.ChatMessageListResponse{Messages: messages})
}

// PostMessage appends a message to an event chat
// @Summary Post an event chat message
// @Tags chat
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.PostMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=models.ChatMessage}
// @Failure 403 {object} dto.ErrorResponse "Blocked or muted"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id}/messages [post]
func (c *ChatController) PostMessage(ctx *gin.Context) {
	var req dto.PostMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	message, err := c.chatService.PostMessage(ctx, ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, message)
}

// GetTyping lists the other users typing in an event chat
// @Summary Get typing users
// @Tags chat
// @Produce json
// @Param id path string true "Event ID"
// @Param userId query string false "Requesting user, excluded from the list"
// @Success 200 {object} dto.APIResponse{data=dto.TypingResponse}
// @Router /events/{id}/typing [get]
func (c *ChatController) GetTyping(ctx *gin.Context) {
	users, err := c.chatService.GetTyping(ctx, ctx.Param("id"), models.NormalizeUserID(ctx.Query("userId")))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.TypingResponse{Users: users})
}

// SetTyping sets or clears the typing indicator of a user
// @Summary Set typing indicator
// @Tags chat
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.TypingRequest true "Typing state"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /events/{id}/typing [post]
func (c *ChatController) SetTyping(ctx *gin.Context) {
	var req dto.TypingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	if err := c.chatService.SetTyping(ctx, ctx.Param("id"), &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.SuccessResponse{Message: "ok"})
}

// DeleteMessage removes a message from an event chat
// @Summary Delete a chat message
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param messageId path string true "Message ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Router /admin/events/{id}/messages/{messageId} [delete]
func (c *ChatController) DeleteMessage(ctx *gin.Context) {
	if err := c.chatService.DeleteMessage(ctx, ctx.Param("id"), ctx.Param("messageId")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.SuccessResponse{Message: "Message deleted"})
}

// GetGlobalMessages returns the sitewide chat
// @Summary Get sitewide chat messages
// @Tags chat
// @Produce json
// @Param since query string false "RFC 3339 timestamp or unix milliseconds, inclusive"
// @Param after query string false "Last message ID the client has seen"
// @Success 200 {object} dto.APIResponse{data=dto.ChatMessageListResponse}
// @Router /chat/messages [get]
func (c *ChatController) GetGlobalMessages(ctx *gin.Context) {
	filter, valid := parseMessageFilter(ctx)
	if !valid {
		return
	}

	messages, err := c.chatService.GetGlobalMessages(ctx, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.ChatMessageListResponse{Messages: messages})
}

// PostGlobalMessage appends a message to the sitewide chat
// @Summary Post a sitewide chat message
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.PostMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=models.ChatMessage}
// @Router /chat/messages [post]
func (c *ChatController) PostGlobalMessage(ctx *gin.Context) {
	var req dto.PostMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	message, err := c.chatService.PostGlobalMessage(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, message)
}

// GetGlobalTyping lists the users typing in the sitewide chat
// @Summary Get sitewide typing users
// @Tags chat
// @Produce json
// @Param userId query string false "Requesting user, excluded from the list"
// @Success 200 {object} dto.APIResponse{data=dto.TypingResponse}
// @Router /chat/typing [get]
func (c *ChatController) GetGlobalTyping(ctx *gin.Context) {
	users, err := c.chatService.GetGlobalTyping(ctx, models.NormalizeUserID(ctx.Query("userId")))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.TypingResponse{Users: users})
}

// SetGlobalTyping sets or clears a sitewide typing indicator
// @Summary Set sitewide typing indicator
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.TypingRequest true "Typing state"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /chat/typing [post]
func (c *ChatController) SetGlobalTyping(ctx *gin.Context) {
	var req dto.TypingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	if err := c.chatService.SetGlobalTyping(ctx, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.SuccessResponse{Message: "ok"})
}
