package models

import "time"

// ChatMessageType distinguishes injected system lines from user posts
type ChatMessageType string

const (
	ChatMessageTypeSystem ChatMessageType = "system"
	ChatMessageTypeUser   ChatMessageType = "user"
)

// ChatMessage is one line of an event transcript or of the sitewide chat
type ChatMessage struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	Timestamp time.Time       `json:"timestamp"`
	Type      ChatMessageType `json:"type"`
	UserID    UserID          `json:"userId,omitempty"`
	UserName  string          `json:"userName,omitempty"`
	Avatar    string          `json:"avatar,omitempty"`
}
