package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/helpers"
	"github.com/campushub/miniapp/internal/pkg/presence"
	"github.com/campushub/miniapp/internal/pkg/websocket"
)

// ChatService defines the interface for event chats, the sitewide chat and
// typing indicators. It also accepts frames read from WebSocket clients.
type ChatService interface {
	PostMessage(ctx context.Context, eventID string, req *dto.PostMessageRequest) (*models.ChatMessage, error)
	GetMessages(ctx context.Context, eventID string, filter MessageFilter) ([]models.ChatMessage, error)
	DeleteMessage(ctx context.Context, eventID, messageID string) error
	SetTyping(ctx context.Context, eventID string, req *dto.TypingRequest) error
	GetTyping(ctx context.Context, eventID string, requester models.UserID) ([]dto.TypingUser, error)

	PostGlobalMessage(ctx context.Context, req *dto.PostMessageRequest) (*models.ChatMessage, error)
	GetGlobalMessages(ctx context.Context, filter MessageFilter) ([]models.ChatMessage, error)
	SetGlobalTyping(ctx context.Context, req *dto.TypingRequest) error
	GetGlobalTyping(ctx context.Context, requester models.UserID) ([]dto.TypingUser, error)

	websocket.InboundSink
}

type chatServiceImpl struct {
	store   *repositories.Store
	tracker *presence.Tracker
	wsHub   *websocket.Hub
	rules   EventRules
	clock   helpers.Clock
	logger  zerolog.Logger
}

// NewChatService creates a new ChatService. hub may be nil.
func NewChatService(
	store *repositories.Store,
	tracker *presence.Tracker,
	wsHub *websocket.Hub,
	rules EventRules,
	clock helpers.Clock,
	logger zerolog.Logger,
) ChatService {
	clock = clockOrDefault(clock)
	if tracker == nil {
		tracker = presence.NewTracker(presence.DefaultTTL, clock)
	}
	return &chatServiceImpl{
		store:   store,
		tracker: tracker,
		wsHub:   wsHub,
		rules:   rules.withDefaults(),
		clock:   clock,
		logger:  logger,
	}
}

func (s *chatServiceImpl) checkText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.NewValidationError("text", "message text is required")
	}
	if utf8.RuneCountInString(text) > s.rules.MaxMessageLength {
		return "", apperrors.NewValidationError("text", fmt.Sprintf("message must be at most %d characters", s.rules.MaxMessageLength))
	}
	return text, nil
}

func (s *chatServiceImpl) newMessage(req *dto.PostMessageRequest, text string, now time.Time) models.ChatMessage {
	return models.ChatMessage{
		ID:        helpers.NewTimeID(now),
		Text:      text,
		Timestamp: now,
		Type:      models.ChatMessageTypeUser,
		UserID:    req.UserID,
		UserName:  userLabel(strings.TrimSpace(req.UserName), req.UserID),
		Avatar:    strings.TrimSpace(req.Avatar),
	}
}

// PostMessage appends a user message to an event chat. Blocked users and
// users with a running mute are refused; an elapsed mute is cleared here.
func (s *chatServiceImpl) PostMessage(ctx context.Context, eventID string, req *dto.PostMessageRequest) (*models.ChatMessage, error) {
	if req.UserID.IsZero() {
		return nil, apperrors.NewValidationError("userId", "userId is required")
	}
	text, err := s.checkText(req.Text)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	msg := s.newMessage(req, text, now)

	err = s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		if _, ok := tx.Event(eventID); !ok {
			return eventNotFound(eventID)
		}

		if r, ok := tx.Restriction(eventID, req.UserID); ok {
			if r.MuteElapsed(now) {
				r.Muted = false
				r.MuteUntil = nil
				r.UpdatedAt = now
				tx.PutRestriction(eventID, r)
			}
			if err := r.CanPost(now); err != nil {
				return err
			}
		}

		tx.AppendMessage(eventID, msg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.tracker.Clear(eventID, req.UserID.String())
	publish(s.wsHub, &websocket.Message{Type: websocket.TypeMessage, Scope: eventID, Message: &msg})

	s.logger.Debug().Str("eventID", eventID).Str("userID", req.UserID.String()).Str("messageID", msg.ID).Msg("Chat message posted")
	return &msg, nil
}

// GetMessages returns an event transcript, optionally narrowed by filter
func (s *chatServiceImpl) GetMessages(ctx context.Context, eventID string, filter MessageFilter) ([]models.ChatMessage, error) {
	var transcript []models.ChatMessage
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		if _, ok := tx.Event(eventID); !ok {
			return eventNotFound(eventID)
		}
		transcript = tx.Transcript(eventID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filterMessages(transcript, filter), nil
}

// MessageFilter narrows a transcript to what a polling client has not seen yet.
// Since is inclusive so messages sharing the cursor's millisecond are not lost;
// AfterID resumes exactly after a known message.
type MessageFilter struct {
	Since   *time.Time
	AfterID string
}

func filterMessages(messages []models.ChatMessage, filter MessageFilter) []models.ChatMessage {
	if filter.AfterID != "" {
		messages = messagesAfter(messages, filter.AfterID)
	}
	if filter.Since == nil {
		return messages
	}
	filtered := make([]models.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if !m.Timestamp.Before(*filter.Since) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// messagesAfter cuts the transcript after the message with id. When that
// message is gone the numeric time ids decide.
func messagesAfter(messages []models.ChatMessage, id string) []models.ChatMessage {
	for i := range messages {
		if messages[i].ID == id {
			return messages[i+1:]
		}
	}
	after, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return messages
	}
	filtered := make([]models.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if n, err := strconv.ParseInt(m.ID, 10, 64); err != nil || n > after {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// DeleteMessage removes one message from an event chat
func (s *chatServiceImpl) DeleteMessage(ctx context.Context, eventID, messageID string) error {
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		if _, ok := tx.Event(eventID); !ok {
			return eventNotFound(eventID)
		}
		if !tx.DeleteMessage(eventID, messageID) {
			return apperrors.NewCustomError(errors.Join(apperrors.ErrResourceNotFound, apperrors.ErrMessageNotFound), "Message not found: "+messageID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	publish(s.wsHub, &websocket.Message{Type: websocket.TypeMessageDeleted, Scope: eventID, MessageID: messageID})
	s.logger.Info().Str("eventID", eventID).Str("messageID", messageID).Msg("Chat message deleted")
	return nil
}

// SetTyping records or clears the requester's typing signal in an event chat
func (s *chatServiceImpl) SetTyping(ctx context.Context, eventID string, req *dto.TypingRequest) error {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return err
	}
	return s.setTyping(eventID, req)
}

// GetTyping lists other users with a fresh typing signal in an event chat
func (s *chatServiceImpl) GetTyping(ctx context.Context, eventID string, requester models.UserID) ([]dto.TypingUser, error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.typing(eventID, requester), nil
}

func (s *chatServiceImpl) requireEvent(ctx context.Context, eventID string) error {
	return s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		if _, ok := tx.Event(eventID); !ok {
			return eventNotFound(eventID)
		}
		return nil
	})
}

func (s *chatServiceImpl) setTyping(scope string, req *dto.TypingRequest) error {
	if req.UserID.IsZero() {
		return apperrors.NewValidationError("userId", "userId is required")
	}
	typing := req.Typing()
	name := userLabel(strings.TrimSpace(req.UserName), req.UserID)

	s.tracker.Set(scope, req.UserID.String(), name, typing)
	publish(s.wsHub, &websocket.Message{
		Type:     websocket.TypeTyping,
		Scope:    scope,
		UserID:   req.UserID,
		UserName: name,
		IsTyping: &typing,
	})
	return nil
}

func (s *chatServiceImpl) typing(scope string, requester models.UserID) []dto.TypingUser {
	typists := s.tracker.Typing(scope, requester.String())
	users := make([]dto.TypingUser, 0, len(typists))
	for _, t := range typists {
		users = append(users, dto.TypingUser{
			UserID:   models.UserID(t.UserID),
			UserName: t.Name,
			Since:    t.LastSignal,
		})
	}
	return users
}

// PostGlobalMessage appends a message to the sitewide chat
func (s *chatServiceImpl) PostGlobalMessage(ctx context.Context, req *dto.PostMessageRequest) (*models.ChatMessage, error) {
	if req.UserID.IsZero() {
		return nil, apperrors.NewValidationError("userId", "userId is required")
	}
	text, err := s.checkText(req.Text)
	if err != nil {
		return nil, err
	}

	msg := s.newMessage(req, text, s.clock())
	err = s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		tx.AppendGlobalMessage(msg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.tracker.Clear(websocket.GlobalScope, req.UserID.String())
	publish(s.wsHub, &websocket.Message{Type: websocket.TypeMessage, Scope: websocket.GlobalScope, Message: &msg})
	return &msg, nil
}

// GetGlobalMessages returns the sitewide chat, optionally only newer messages
func (s *chatServiceImpl) GetGlobalMessages(ctx context.Context, filter MessageFilter) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		messages = tx.GlobalMessages()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filterMessages(messages, filter), nil
}

// SetGlobalTyping records or clears a typing signal in the sitewide chat
func (s *chatServiceImpl) SetGlobalTyping(_ context.Context, req *dto.TypingRequest) error {
	return s.setTyping(websocket.GlobalScope, req)
}

// GetGlobalTyping lists other users typing in the sitewide chat
func (s *chatServiceImpl) GetGlobalTyping(_ context.Context, requester models.UserID) ([]dto.TypingUser, error) {
	return s.typing(websocket.GlobalScope, requester), nil
}

// PostFromSocket applies a message frame with the same rules as the HTTP endpoint
func (s *chatServiceImpl) PostFromSocket(ctx context.Context, scope string, userID models.UserID, userName, text string) error {
	req := &dto.PostMessageRequest{UserID: userID, UserName: userName, Text: text}
	var err error
	if scope == websocket.GlobalScope {
		_, err = s.PostGlobalMessage(ctx, req)
	} else {
		_, err = s.PostMessage(ctx, scope, req)
	}
	return err
}

// TypingFromSocket applies a typing frame
func (s *chatServiceImpl) TypingFromSocket(ctx context.Context, scope string, userID models.UserID, userName string, typing bool) error {
	req := &dto.TypingRequest{UserID: userID, UserName: userName, IsTyping: &typing}
	if scope == websocket.GlobalScope {
		return s.SetGlobalTyping(ctx, req)
	}
	return s.SetTyping(ctx, scope, req)
}
