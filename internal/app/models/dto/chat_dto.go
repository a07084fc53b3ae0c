package dto

import (
	"time"

	"github.com/campushub/miniapp/internal/app/models"
)

// --- Request DTOs ---

// PostMessageRequest represents a chat line sent by a user
type PostMessageRequest struct {
	UserID   models.UserID `json:"userId" binding:"required"`
	UserName string        `json:"userName"`
	Avatar   string        `json:"avatar"`
	Text     string        `json:"text" binding:"required,notblank"`
}

// GetMessagesRequest represents filter parameters for retrieving chat messages.
// Since accepts an RFC 3339 timestamp or unix milliseconds and is inclusive;
// After is the ID of the last message the client already has.
type GetMessagesRequest struct {
	Since string `form:"since"`
	After string `form:"after"`
}

// TypingRequest sets or clears a typing indicator. A missing isTyping means typing.
type TypingRequest struct {
	UserID   models.UserID `json:"userId" binding:"required"`
	UserName string        `json:"userName"`
	IsTyping *bool         `json:"isTyping"`
}

// Typing returns the requested indicator state
func (r *TypingRequest) Typing() bool {
	return r.IsTyping == nil || *r.IsTyping
}

// --- Response DTOs ---

// ChatMessageListResponse represents a list of chat messages
type ChatMessageListResponse struct {
	Messages []models.ChatMessage `json:"messages"`
}

// TypingUser is one entry of a typing indicator read
type TypingUser struct {
	UserID   models.UserID `json:"userId"`
	UserName string        `json:"userName"`
	Since    time.Time     `json:"since"`
}

// TypingResponse lists the other users currently typing
type TypingResponse struct {
	Users []TypingUser `json:"users"`
}
