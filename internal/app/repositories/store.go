package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/pkg/jsonstore"
)

// Collection names, one JSON document each
const (
	CollectionEvents         = "events"
	CollectionParticipants   = "participants"
	CollectionMessages       = "messages"
	CollectionGlobalMessages = "global_messages"
	CollectionRestrictions   = "restrictions"
	CollectionPhotos         = "photos"
	CollectionVideos         = "videos"
	CollectionSchedules      = "schedules"
	CollectionSettings       = "settings"
	CollectionContacts       = "contacts"
)

// Collections lists every persisted collection in load order
var Collections = []string{
	CollectionEvents,
	CollectionParticipants,
	CollectionMessages,
	CollectionGlobalMessages,
	CollectionRestrictions,
	CollectionPhotos,
	CollectionVideos,
	CollectionSchedules,
	CollectionSettings,
	CollectionContacts,
}

const defaultEventDuration = 24

// state is the working set. Every field is only touched under Store.mu.
type state struct {
	events         []*models.Event
	participants   map[string][]models.Participant
	messages       map[string][]models.ChatMessage
	globalMessages []models.ChatMessage
	restrictions   map[string][]models.Restriction
	photos         []*models.Photo
	videos         []*models.Video
	schedules      []*models.Schedule
	settings       models.Settings
	contacts       []models.Contact
}

func newState() *state {
	return &state{
		participants: make(map[string][]models.Participant),
		messages:     make(map[string][]models.ChatMessage),
		restrictions: make(map[string][]models.Restriction),
		settings:     make(models.Settings),
	}
}

// Store owns the in-memory working set and mirrors every committed change
// to the document repository in the background.
type Store struct {
	mu     sync.RWMutex
	data   *state
	mirror *jsonstore.Mirror
	logger zerolog.Logger
}

// TxFn is a function that executes within a store transaction
type TxFn func(tx *Tx) error

// NewStore loads every collection through the mirror's repository. Missing
// documents start empty; unreadable ones are logged and start empty too.
func NewStore(ctx context.Context, mirror *jsonstore.Mirror, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		data:   newState(),
		mirror: mirror,
		logger: logger,
	}

	repo := mirror.Repository()
	for _, name := range Collections {
		raw, err := repo.Load(ctx, name)
		if errors.Is(err, jsonstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load collection %s: %w", name, err)
		}
		if err := s.data.decode(name, raw); err != nil {
			logger.Error().Err(err).Str("collection", name).Msg("Corrupt collection document, starting empty")
		}
	}

	s.data.normalize()
	logger.Info().
		Int("events", len(s.data.events)).
		Int("photos", len(s.data.photos)).
		Int("videos", len(s.data.videos)).
		Int("schedules", len(s.data.schedules)).
		Msg("Store loaded")

	return s, nil
}

// WithTransaction runs fn with exclusive access to the working set. Changes
// are not rolled back when fn fails; callers check preconditions before
// mutating. Every collection fn dirtied is snapshotted and queued for
// persistence before the lock is released.
func (s *Store) WithTransaction(ctx context.Context, fn TxFn) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{data: s.data, dirty: make(map[string]bool)}
	err := fn(tx)
	s.persist(tx.dirty)
	return err
}

// WithReadTransaction runs fn with shared access to the working set
func (s *Store) WithReadTransaction(ctx context.Context, fn TxFn) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&Tx{data: s.data, readOnly: true})
}

// Flush waits for queued snapshots to reach the repository
func (s *Store) Flush(ctx context.Context) error {
	return s.mirror.Flush(ctx)
}

func (s *Store) persist(dirty map[string]bool) {
	names := make([]string, 0, len(dirty))
	for name := range dirty {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := s.data.encode(name)
		if err != nil {
			s.logger.Error().Err(err).Str("collection", name).Msg("Failed to encode collection")
			continue
		}
		s.mirror.Enqueue(name, raw)
	}
}

func (st *state) decode(name string, raw []byte) error {
	switch name {
	case CollectionEvents:
		return jsonstore.Decode(raw, &st.events)
	case CollectionParticipants:
		return jsonstore.Decode(raw, &st.participants)
	case CollectionMessages:
		return jsonstore.Decode(raw, &st.messages)
	case CollectionGlobalMessages:
		return jsonstore.Decode(raw, &st.globalMessages)
	case CollectionRestrictions:
		return jsonstore.Decode(raw, &st.restrictions)
	case CollectionPhotos:
		return jsonstore.Decode(raw, &st.photos)
	case CollectionVideos:
		return jsonstore.Decode(raw, &st.videos)
	case CollectionSchedules:
		return jsonstore.Decode(raw, &st.schedules)
	case CollectionSettings:
		return jsonstore.Decode(raw, &st.settings)
	case CollectionContacts:
		return jsonstore.Decode(raw, &st.contacts)
	}
	return fmt.Errorf("unknown collection %q", name)
}

func (st *state) encode(name string) ([]byte, error) {
	switch name {
	case CollectionEvents:
		return jsonstore.Encode(nonNil(st.events))
	case CollectionParticipants:
		return jsonstore.Encode(st.participants)
	case CollectionMessages:
		return jsonstore.Encode(st.messages)
	case CollectionGlobalMessages:
		return jsonstore.Encode(nonNil(st.globalMessages))
	case CollectionRestrictions:
		return jsonstore.Encode(st.restrictions)
	case CollectionPhotos:
		return jsonstore.Encode(nonNil(st.photos))
	case CollectionVideos:
		return jsonstore.Encode(nonNil(st.videos))
	case CollectionSchedules:
		return jsonstore.Encode(nonNil(st.schedules))
	case CollectionSettings:
		return jsonstore.Encode(st.settings)
	case CollectionContacts:
		return jsonstore.Encode(nonNil(st.contacts))
	}
	return nil, fmt.Errorf("unknown collection %q", name)
}

// normalize repairs records written by older versions: nil maps, events
// without an expiry and participant counts that drifted from the roster.
func (st *state) normalize() {
	if st.participants == nil {
		st.participants = make(map[string][]models.Participant)
	}
	if st.messages == nil {
		st.messages = make(map[string][]models.ChatMessage)
	}
	if st.restrictions == nil {
		st.restrictions = make(map[string][]models.Restriction)
	}
	if st.settings == nil {
		st.settings = make(models.Settings)
	}

	events := st.events[:0]
	for _, event := range st.events {
		if event == nil || event.ID == "" {
			continue
		}
		if event.Duration <= 0 {
			event.Duration = defaultEventDuration
		}
		if event.ExpiresAt.IsZero() {
			event.ComputeExpiry()
		}
		event.Participants = len(st.participants[event.ID])
		events = append(events, event)
	}
	st.events = events
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
