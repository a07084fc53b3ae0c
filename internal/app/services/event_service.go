package services

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/helpers"
	"github.com/campushub/miniapp/internal/pkg/presence"
	"github.com/campushub/miniapp/internal/pkg/websocket"
)

// EventService defines the interface for event and roster operations
type EventService interface {
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest, byAdmin bool) (*models.Event, error)
	ListPublicEvents(ctx context.Context) ([]models.Event, error)
	ListAllEvents(ctx context.Context, status models.ModerationStatus) ([]models.Event, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	EventExists(ctx context.Context, id string) error

	JoinEvent(ctx context.Context, id string, req *dto.JoinEventRequest) (*dto.JoinEventResponse, error)
	LeaveEvent(ctx context.Context, id string, userID models.UserID) (*dto.JoinEventResponse, error)
	IsParticipant(ctx context.Context, id string, userID models.UserID) (bool, error)
	GetParticipants(ctx context.Context, id string) ([]models.Participant, error)
}

type eventServiceImpl struct {
	store    *repositories.Store
	tracker  *presence.Tracker
	wsHub    *websocket.Hub
	notifier ModerationNotifier
	rules    EventRules
	clock    helpers.Clock
	logger   zerolog.Logger
}

// NewEventService creates a new EventService. hub and notifier may be nil.
func NewEventService(
	store *repositories.Store,
	tracker *presence.Tracker,
	wsHub *websocket.Hub,
	notifier ModerationNotifier,
	rules EventRules,
	clock helpers.Clock,
	logger zerolog.Logger,
) EventService {
	return &eventServiceImpl{
		store:    store,
		tracker:  tracker,
		wsHub:    wsHub,
		notifier: notifier,
		rules:    rules.withDefaults(),
		clock:    clockOrDefault(clock),
		logger:   logger,
	}
}

// CreateEvent stores a new event. Public submissions wait for moderation and
// trigger a review request; admin-created events are approved immediately.
func (s *eventServiceImpl) CreateEvent(ctx context.Context, req *dto.CreateEventRequest, byAdmin bool) (*models.Event, error) {
	event := &models.Event{
		Title:           strings.TrimSpace(req.Title),
		Date:            strings.TrimSpace(req.Date),
		Time:            strings.TrimSpace(req.Time),
		Location:        strings.TrimSpace(req.Location),
		Description:     strings.TrimSpace(req.Description),
		Duration:        s.rules.clampDuration(req.Duration),
		CreatorUsername: strings.TrimSpace(req.CreatorUsername),
		CreatorID:       req.CreatorID,
	}
	if err := validateEventFields(event); err != nil {
		return nil, err
	}
	if event.CreatorUsername == "" {
		event.CreatorUsername = models.CreatorAnonymous
		if byAdmin {
			event.CreatorUsername = models.CreatorAdministrator
		}
	}

	now := s.clock()
	var created models.Event
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		event.ID = helpers.NewTimeID(now)
		event.CreatedAt = now
		event.ComputeExpiry()
		if byAdmin || !moderationEnabled(tx.Settings()) {
			event.Approve(now)
		} else {
			event.Status = models.StatusPending
		}
		tx.InsertEvent(event)
		created = *event
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("eventID", created.ID).
		Str("title", created.Title).
		Str("status", string(created.Status)).
		Bool("byAdmin", byAdmin).
		Msg("Event created")

	if created.Status == models.StatusPending && s.notifier != nil {
		s.notifier.NotifyModerationAsync(models.EntityEvent, created.ID)
	}
	return &created, nil
}

func validateEventFields(e *models.Event) error {
	switch {
	case e.Title == "":
		return apperrors.NewValidationError("title", "title is required")
	case e.Date == "":
		return apperrors.NewValidationError("date", "date is required")
	case e.Time == "":
		return apperrors.NewValidationError("time", "time is required")
	case e.Location == "":
		return apperrors.NewValidationError("location", "location is required")
	}
	return nil
}

// ListPublicEvents returns approved events that are not past the visibility
// grace window, newest first
func (s *eventServiceImpl) ListPublicEvents(ctx context.Context) ([]models.Event, error) {
	now := s.clock()
	return s.collect(ctx, func(e *models.Event) bool {
		return e.VisibleAt(now, s.rules.VisibilityGrace)
	})
}

// ListAllEvents returns every event, optionally narrowed to one status
func (s *eventServiceImpl) ListAllEvents(ctx context.Context, status models.ModerationStatus) ([]models.Event, error) {
	return s.collect(ctx, func(e *models.Event) bool {
		if status == "" {
			return true
		}
		if status == models.StatusApproved {
			return e.IsEffectivelyApproved()
		}
		return e.Status == status
	})
}

func (s *eventServiceImpl) collect(ctx context.Context, keep func(*models.Event) bool) ([]models.Event, error) {
	events := []models.Event{}
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		for _, e := range tx.Events() {
			if keep(e) {
				events = append(events, *e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

// GetEventByID retrieves one event regardless of its status
func (s *eventServiceImpl) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		e, ok := tx.Event(id)
		if !ok {
			return eventNotFound(id)
		}
		event = *e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// EventExists returns a not found error for unknown ids
func (s *eventServiceImpl) EventExists(ctx context.Context, id string) error {
	_, err := s.GetEventByID(ctx, id)
	return err
}

// UpdateEvent edits an event; a new duration moves its expiry
func (s *eventServiceImpl) UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*models.Event, error) {
	var updated models.Event
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		e, ok := tx.Event(id)
		if !ok {
			return eventNotFound(id)
		}

		draft := *e
		applyString(&draft.Title, req.Title)
		applyString(&draft.Date, req.Date)
		applyString(&draft.Time, req.Time)
		applyString(&draft.Location, req.Location)
		applyString(&draft.Description, req.Description)
		if req.Duration != nil {
			draft.Duration = s.rules.clampDuration(*req.Duration)
			draft.ComputeExpiry()
		}
		if err := validateEventFields(&draft); err != nil {
			return err
		}

		*e = draft
		tx.Touch(repositories.CollectionEvents)
		updated = draft
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("eventID", id).Msg("Event updated")
	return &updated, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// DeleteEvent removes an event with its roster, chat and restrictions
func (s *eventServiceImpl) DeleteEvent(ctx context.Context, id string) error {
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		if !tx.DeleteEvent(id) {
			return eventNotFound(id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.tracker != nil {
		s.tracker.Drop(id)
	}
	publish(s.wsHub, &websocket.Message{Type: websocket.TypeEventDeleted, Scope: id})

	s.logger.Info().Str("eventID", id).Msg("Event deleted")
	return nil
}

// JoinEvent adds the user to the roster once. A repeated join changes
// nothing and injects no second welcome line.
func (s *eventServiceImpl) JoinEvent(ctx context.Context, id string, req *dto.JoinEventRequest) (*dto.JoinEventResponse, error) {
	if req.UserID.IsZero() {
		return nil, apperrors.NewValidationError("userId", "userId is required")
	}

	now := s.clock()
	resp := &dto.JoinEventResponse{EventID: id, Joined: true}
	var welcome *models.ChatMessage

	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		if _, ok := tx.Event(id); !ok {
			return eventNotFound(id)
		}

		roster := tx.Roster(id)
		if _, ok := tx.Participant(id, req.UserID); ok {
			resp.Participants = len(roster)
			return nil
		}

		name := req.DisplayName()
		roster = append(roster, models.Participant{
			UserID:   req.UserID,
			Name:     name,
			Avatar:   strings.TrimSpace(req.Avatar),
			JoinedAt: now,
		})
		tx.SetRoster(id, roster)

		msg := models.ChatMessage{
			ID:        helpers.NewTimeID(now),
			Text:      "👋 " + name + " joined the event",
			Timestamp: now,
			Type:      models.ChatMessageTypeSystem,
		}
		tx.AppendMessage(id, msg)
		welcome = &msg

		resp.Changed = true
		resp.Participants = len(roster)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resp.Changed {
		publish(s.wsHub, &websocket.Message{Type: websocket.TypeMessage, Scope: id, Message: welcome})
		s.publishCount(id, resp.Participants)
		s.logger.Info().Str("eventID", id).Str("userID", req.UserID.String()).Int("participants", resp.Participants).Msg("User joined event")
	}
	return resp, nil
}

// LeaveEvent removes the user from the roster; leaving twice is a no-op
func (s *eventServiceImpl) LeaveEvent(ctx context.Context, id string, userID models.UserID) (*dto.JoinEventResponse, error) {
	if userID.IsZero() {
		return nil, apperrors.NewValidationError("userId", "userId is required")
	}

	resp := &dto.JoinEventResponse{EventID: id}
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		if _, ok := tx.Event(id); !ok {
			return eventNotFound(id)
		}

		roster := tx.Roster(id)
		kept := roster[:0]
		for _, p := range roster {
			if p.UserID != userID {
				kept = append(kept, p)
			}
		}
		resp.Participants = len(kept)
		if len(kept) == len(roster) {
			return nil
		}

		tx.SetRoster(id, kept)
		resp.Changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resp.Changed {
		s.publishCount(id, resp.Participants)
		s.logger.Info().Str("eventID", id).Str("userID", userID.String()).Int("participants", resp.Participants).Msg("User left event")
	}
	return resp, nil
}

func (s *eventServiceImpl) publishCount(id string, count int) {
	n := count
	publish(s.wsHub, &websocket.Message{Type: websocket.TypeParticipants, Scope: id, Count: &n})
}

// IsParticipant reports whether the user is on the roster
func (s *eventServiceImpl) IsParticipant(ctx context.Context, id string, userID models.UserID) (bool, error) {
	joined := false
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		if _, ok := tx.Event(id); !ok {
			return eventNotFound(id)
		}
		_, joined = tx.Participant(id, userID)
		return nil
	})
	return joined, err
}

// GetParticipants returns the roster in join order
func (s *eventServiceImpl) GetParticipants(ctx context.Context, id string) ([]models.Participant, error) {
	var roster []models.Participant
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		if _, ok := tx.Event(id); !ok {
			return eventNotFound(id)
		}
		roster = tx.Roster(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}
