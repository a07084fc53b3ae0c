package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/filestorage"
	"github.com/campushub/miniapp/internal/pkg/helpers"
	"github.com/campushub/miniapp/internal/pkg/notify"
)

// Contact list sources reported to the admin panel
const (
	ContactSourceDatabase = "database"
	ContactSourceFallback = "json"
)

const notifyTimeout = 30 * time.Second

// NotificationService relays moderation requests and broadcasts to bot contacts
type NotificationService interface {
	RegisterContact(ctx context.Context, contact models.Contact) error
	PromoteContact(ctx context.Context, id int64) error
	ListContacts(ctx context.Context) (*dto.ContactListResponse, error)
	NotifyModeration(ctx context.Context, kind models.EntityType, id string) error
	NotifyModerationAsync(kind models.EntityType, id string)
	Broadcast(ctx context.Context, text string) (*dto.BroadcastResult, error)
	HandleCallback(ctx context.Context, data string) (*dto.ModerationResult, error)
	Wait()
}

// NotificationConfig configures recipients and pacing
type NotificationConfig struct {
	AdminChatIDs      []int64
	BroadcastInterval time.Duration
}

type notificationServiceImpl struct {
	store       *repositories.Store
	contactRepo *repositories.ContactRepository
	transport   notify.Transport
	moderation  ModerationService
	fileStorage filestorage.FileStorage
	config      NotificationConfig
	clock       helpers.Clock
	logger      zerolog.Logger

	wg sync.WaitGroup
}

// NewNotificationService creates a new NotificationService. contactRepo may
// be nil, in which case contacts live only in the document store.
func NewNotificationService(
	store *repositories.Store,
	contactRepo *repositories.ContactRepository,
	transport notify.Transport,
	moderation ModerationService,
	fileStorage filestorage.FileStorage,
	config NotificationConfig,
	clock helpers.Clock,
	logger zerolog.Logger,
) NotificationService {
	if transport == nil {
		transport = notify.NewNoopTransport(logger)
	}
	return &notificationServiceImpl{
		store:       store,
		contactRepo: contactRepo,
		transport:   transport,
		moderation:  moderation,
		fileStorage: fileStorage,
		config:      config,
		clock:       clockOrDefault(clock),
		logger:      logger,
	}
}

// RegisterContact records a bot user. The relational table is the source of
// truth; the document copy is refreshed on every call as a fallback.
func (s *notificationServiceImpl) RegisterContact(ctx context.Context, contact models.Contact) error {
	if contact.ID == 0 {
		return apperrors.NewValidationError("id", "contact id is required")
	}
	now := s.clock()
	contact.LastSeen = now
	contact.Active = true

	var dbErr error
	if s.contactRepo != nil {
		if dbErr = s.contactRepo.Upsert(ctx, &contact); dbErr != nil {
			s.logger.Error().Err(dbErr).Int64("contactID", contact.ID).Msg("Failed to upsert contact, keeping JSON copy only")
		}
	}

	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		for _, existing := range tx.Contacts() {
			if existing.ID == contact.ID {
				contact.FirstSeen = existing.FirstSeen
				contact.IsAdmin = contact.IsAdmin || existing.IsAdmin
				break
			}
		}
		if contact.FirstSeen.IsZero() {
			contact.FirstSeen = now
		}
		tx.PutContact(contact)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("contactID", contact.ID).Str("name", contact.DisplayName()).Msg("Contact registered")
	return nil
}

// PromoteContact makes a contact receive moderation requests
func (s *notificationServiceImpl) PromoteContact(ctx context.Context, id int64) error {
	if s.contactRepo != nil {
		if err := s.contactRepo.SetAdmin(ctx, id, true); err != nil && !apperrors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Error().Err(err).Int64("contactID", id).Msg("Failed to promote contact in database")
		}
	}

	found := false
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		for _, c := range tx.Contacts() {
			if c.ID == id {
				c.IsAdmin = true
				tx.PutContact(c)
				found = true
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("contact %d not found", id))
	}

	s.logger.Info().Int64("contactID", id).Msg("Contact promoted to moderator")
	return nil
}

// ListContacts reads the relational table and falls back to the document copy
func (s *notificationServiceImpl) ListContacts(ctx context.Context) (*dto.ContactListResponse, error) {
	if s.contactRepo != nil {
		contacts, err := s.contactRepo.GetAll(ctx)
		if err == nil {
			return &dto.ContactListResponse{Contacts: contacts, Source: ContactSourceDatabase}, nil
		}
		s.logger.Warn().Err(err).Msg("Contact table unavailable, using JSON fallback")
	}

	contacts, err := s.fallbackContacts(ctx, func(models.Contact) bool { return true })
	if err != nil {
		return nil, err
	}
	return &dto.ContactListResponse{Contacts: contacts, Source: ContactSourceFallback}, nil
}

func (s *notificationServiceImpl) fallbackContacts(ctx context.Context, keep func(models.Contact) bool) ([]models.Contact, error) {
	contacts := []models.Contact{}
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		for _, c := range tx.Contacts() {
			if keep(c) {
				contacts = append(contacts, c)
			}
		}
		return nil
	})
	return contacts, err
}

func (s *notificationServiceImpl) activeContacts(ctx context.Context) ([]models.Contact, error) {
	if s.contactRepo != nil {
		contacts, err := s.contactRepo.GetActive(ctx)
		if err == nil {
			return contacts, nil
		}
		s.logger.Warn().Err(err).Msg("Contact table unavailable, using JSON fallback")
	}
	return s.fallbackContacts(ctx, func(c models.Contact) bool { return c.Active })
}

// moderators merges configured admin chats with contacts flagged as admins
func (s *notificationServiceImpl) moderators(ctx context.Context) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	add := func(id int64) {
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, id := range s.config.AdminChatIDs {
		add(id)
	}

	var admins []models.Contact
	var err error
	if s.contactRepo != nil {
		admins, err = s.contactRepo.GetAdmins(ctx)
	}
	if s.contactRepo == nil || err != nil {
		if err != nil {
			s.logger.Warn().Err(err).Msg("Contact table unavailable, using JSON fallback")
		}
		admins, _ = s.fallbackContacts(ctx, func(c models.Contact) bool { return c.Active && c.IsAdmin })
	}
	for _, c := range admins {
		add(c.ID)
	}
	return ids
}

func moderationActions(kind models.EntityType, id string) []notify.Action {
	return []notify.Action{
		{Label: "✅ Approve", Data: notify.EncodePayload(notify.Payload{Type: string(kind), ID: id, Action: string(models.ActionApprove)})},
		{Label: "❌ Reject", Data: notify.EncodePayload(notify.Payload{Type: string(kind), ID: id, Action: string(models.ActionReject)})},
	}
}

// NotifyModeration sends a review request with approve and reject buttons to every moderator
func (s *notificationServiceImpl) NotifyModeration(ctx context.Context, kind models.EntityType, id string) error {
	var (
		text      string
		photoPath string
		found     bool
	)

	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		switch kind {
		case models.EntityEvent:
			if event, ok := tx.Event(id); ok {
				text, found = describeEvent(event), true
			}
		case models.EntityPhoto:
			if photo, ok := tx.Photo(id); ok {
				text, found = describePhoto(photo), true
				photoPath = photo.Path
			}
		case models.EntityVideo:
			if video, ok := tx.Video(id); ok {
				text, found = describeVideo(video), true
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("%s %s not found", kind, id))
	}

	recipients := s.moderators(ctx)
	if len(recipients) == 0 {
		s.logger.Warn().Str("type", string(kind)).Str("id", id).Msg("No moderators to notify")
		return nil
	}

	actions := moderationActions(kind, id)
	var fullPath string
	if photoPath != "" && s.fileStorage != nil {
		fullPath = s.fileStorage.GetFullPath(photoPath)
	}

	failed := 0
	for _, chatID := range recipients {
		var sendErr error
		if fullPath != "" {
			sendErr = s.transport.SendPhoto(ctx, chatID, fullPath, text, actions)
		}
		if fullPath == "" || sendErr != nil {
			sendErr = s.transport.SendTextWithActions(ctx, chatID, text, actions)
		}
		if sendErr != nil {
			failed++
			s.logger.Error().Err(sendErr).Int64("chatID", chatID).Str("type", string(kind)).Str("id", id).Msg("Failed to send moderation request")
		}
	}

	s.logger.Info().
		Str("type", string(kind)).
		Str("id", id).
		Int("recipients", len(recipients)).
		Int("failed", failed).
		Msg("Moderation request sent")
	return nil
}

// NotifyModerationAsync runs NotifyModeration in the background; Wait blocks
// until every pending notification finished.
func (s *notificationServiceImpl) NotifyModerationAsync(kind models.EntityType, id string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.NotifyModeration(ctx, kind, id); err != nil {
			s.logger.Error().Err(err).Str("type", string(kind)).Str("id", id).Msg("Moderation notification failed")
		}
	}()
}

// Wait blocks until background notifications are done
func (s *notificationServiceImpl) Wait() {
	s.wg.Wait()
}

// Broadcast sends text to every active contact, paced by the configured
// interval. Contacts that blocked the bot are deactivated.
func (s *notificationServiceImpl) Broadcast(ctx context.Context, text string) (*dto.BroadcastResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("message", "message is required")
	}

	contacts, err := s.activeContacts(ctx)
	if err != nil {
		return nil, err
	}

	result := &dto.BroadcastResult{Total: len(contacts)}
	if len(contacts) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.config.BroadcastInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(s.config.BroadcastInterval), 1)
	}

	for i, contact := range contacts {
		if err := limiter.Wait(ctx); err != nil {
			result.Failed += len(contacts) - i
			s.logger.Warn().Err(err).Int("sent", result.Sent).Msg("Broadcast interrupted")
			return result, err
		}

		if err := s.transport.SendText(ctx, contact.ID, text); err != nil {
			result.Failed++
			if errors.Is(err, notify.ErrRecipientGone) {
				s.deactivate(ctx, contact.ID)
			} else {
				s.logger.Warn().Err(err).Int64("contactID", contact.ID).Msg("Broadcast delivery failed")
			}
			continue
		}
		result.Sent++
	}

	s.logger.Info().Int("total", result.Total).Int("sent", result.Sent).Int("failed", result.Failed).Msg("Broadcast finished")
	return result, nil
}

func (s *notificationServiceImpl) deactivate(ctx context.Context, id int64) {
	if s.contactRepo != nil {
		if err := s.contactRepo.SetActive(ctx, id, false); err != nil {
			s.logger.Error().Err(err).Int64("contactID", id).Msg("Failed to deactivate contact")
		}
	}
	_ = s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		tx.SetContactActive(id, false)
		return nil
	})
	s.logger.Info().Int64("contactID", id).Msg("Contact deactivated after blocking the bot")
}

// HandleCallback applies the decision carried by a moderation button
func (s *notificationServiceImpl) HandleCallback(ctx context.Context, data string) (*dto.ModerationResult, error) {
	payload, err := notify.DecodePayload(data)
	if err != nil {
		return nil, apperrors.NewBadRequestError("malformed callback data")
	}
	kind, err := models.ParseEntityType(payload.Type)
	if err != nil {
		return nil, err
	}
	action, err := models.ParseModerationAction(payload.Action)
	if err != nil {
		return nil, err
	}
	return s.moderation.Moderate(ctx, kind, payload.ID, action)
}

func describeEvent(e *models.Event) string {
	var b strings.Builder
	b.WriteString("🆕 New event awaiting moderation\n\n")
	fmt.Fprintf(&b, "📌 %s\n📅 %s %s\n📍 %s\n⏱ %dh\n👤 %s", e.Title, e.Date, e.Time, e.Location, e.Duration, e.CreatorUsername)
	if e.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", e.Description)
	}
	return b.String()
}

func describePhoto(p *models.Photo) string {
	text := "📷 New photo from " + userLabel(p.UserName, p.UserID)
	if p.Description != "" {
		text += "\n\n" + p.Description
	}
	return text
}

func describeVideo(v *models.Video) string {
	text := "🎬 New video from " + userLabel(v.UserName, v.UserID)
	if v.Title != "" {
		text += "\n📌 " + v.Title
	}
	if v.Description != "" {
		text += "\n\n" + v.Description
	}
	return text + "\n" + v.Path
}
