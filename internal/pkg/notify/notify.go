// Package notify defines the outbound messaging boundary used for moderation
// requests and broadcasts, and the payload carried by inline action buttons.
package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// ErrRecipientGone is returned by transports when a recipient can no longer be
// reached, for instance after blocking the bot
var ErrRecipientGone = errors.New("recipient is no longer reachable")

// Action is an inline button attached to a message
type Action struct {
	Label string
	Data  string
}

// Transport delivers messages to chat ids
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendTextWithActions(ctx context.Context, chatID int64, text string, actions []Action) error
	SendPhoto(ctx context.Context, chatID int64, path, caption string, actions []Action) error
}

// Payload is the callback data of a moderation button. Keys are short because
// Telegram limits callback data to 64 bytes.
type Payload struct {
	Type   string `json:"t"`
	ID     string `json:"id"`
	Action string `json:"a"`
}

// EncodePayload renders callback data for a button
func EncodePayload(p Payload) string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(data)
}

// DecodePayload parses callback data produced by EncodePayload. Telegram
// prefixes data of unique buttons with "\f<unique>|", which is stripped.
func DecodePayload(data string) (Payload, error) {
	if i := strings.IndexByte(data, '{'); i > 0 {
		data = data[i:]
	}

	var p Payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Payload{}, err
	}
	if p.Type == "" || p.ID == "" || p.Action == "" {
		return Payload{}, errors.New("incomplete callback payload")
	}
	return p, nil
}

// NoopTransport logs messages instead of sending them. It is used when no bot
// token is configured.
type NoopTransport struct {
	logger zerolog.Logger
}

// NewNoopTransport creates a logging transport
func NewNoopTransport(logger zerolog.Logger) *NoopTransport {
	return &NoopTransport{logger: logger}
}

// SendText logs the text
func (t *NoopTransport) SendText(_ context.Context, chatID int64, text string) error {
	t.logger.Debug().Int64("chatID", chatID).Str("text", text).Msg("Notification (no transport)")
	return nil
}

// SendTextWithActions logs the text and button count
func (t *NoopTransport) SendTextWithActions(_ context.Context, chatID int64, text string, actions []Action) error {
	t.logger.Debug().Int64("chatID", chatID).Str("text", text).Int("actions", len(actions)).Msg("Notification (no transport)")
	return nil
}

// SendPhoto logs the photo path and caption
func (t *NoopTransport) SendPhoto(_ context.Context, chatID int64, path, caption string, actions []Action) error {
	t.logger.Debug().Int64("chatID", chatID).Str("path", path).Str("caption", caption).Int("actions", len(actions)).Msg("Photo notification (no transport)")
	return nil
}
