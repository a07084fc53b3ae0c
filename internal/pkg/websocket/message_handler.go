package websocket

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
)

// Frame types accepted from clients
const (
	FrameMessage = "message"
	FrameTyping  = "typing"
)

// InboundSink applies frames read from sockets with the same rules as the HTTP endpoints
type InboundSink interface {
	PostFromSocket(ctx context.Context, scope string, userID models.UserID, userName, text string) error
	TypingFromSocket(ctx context.Context, scope string, userID models.UserID, userName string, typing bool) error
}

// MessageHandler processes WebSocket frames and hands them to the chat service
type MessageHandler struct {
	hub    *Hub
	sink   InboundSink
	logger zerolog.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(hub *Hub, sink InboundSink, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		hub:    hub,
		sink:   sink,
		logger: logger,
	}
}

// Start begins processing frames from the hub
func (h *MessageHandler) Start() {
	go h.processFrames()
}

func (h *MessageHandler) processFrames() {
	for {
		select {
		case frame := <-h.hub.inbound:
			h.HandleFrame(frame)
		case <-h.hub.stop:
			return
		}
	}
}

// HandleFrame applies one frame and reports failures back to its sender
func (h *MessageHandler) HandleFrame(frame *Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID, userName := frame.Sender()

	var err error
	switch frame.Type {
	case FrameMessage:
		err = h.sink.PostFromSocket(ctx, frame.Scope(), userID, userName, frame.Text)
	case FrameTyping:
		typing := frame.IsTyping == nil || *frame.IsTyping
		err = h.sink.TypingFromSocket(ctx, frame.Scope(), userID, userName, typing)
	default:
		err = apperrors.NewBadRequestError("unknown frame type " + frame.Type)
	}

	if err != nil {
		h.logger.Debug().Err(err).Str("scope", frame.Scope()).Str("type", frame.Type).Msg("Rejected WebSocket frame")
		h.hub.sendTo(frame.client, &Message{
			Type:      TypeError,
			Scope:     frame.Scope(),
			Error:     apperrors.Message(err),
			Timestamp: time.Now(),
		})
	}
}
