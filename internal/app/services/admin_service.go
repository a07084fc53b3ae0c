package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/auth"
	"github.com/campushub/miniapp/internal/pkg/filestorage"
)

// LegacyAdminToken is the fixed token older admin panels send
const LegacyAdminToken = "admin-authenticated"

// contactTableKey names the relational contact table in wipe reports
const contactTableKey = "bot_contacts"

// AdminConfig holds the admin credentials
type AdminConfig struct {
	Password         string
	PasswordHash     string
	AllowLegacyToken bool
}

// AdminService handles admin authentication and maintenance operations
type AdminService interface {
	Login(ctx context.Context, password string) (*dto.LoginResponse, error)
	CheckPassword(password string) bool
	ValidateToken(token string) error
	Wipe(ctx context.Context, category models.WipeCategory) (*dto.WipeResponse, error)
	Stats(ctx context.Context) (*dto.StatsResponse, error)
}

type adminServiceImpl struct {
	store       *repositories.Store
	contactRepo *repositories.ContactRepository
	fileStorage filestorage.FileStorage
	jwtService  *auth.JWTService
	config      AdminConfig
	logger      zerolog.Logger
}

// NewAdminService creates a new AdminService. Without a JWT service the
// legacy token is issued and always accepted.
func NewAdminService(
	store *repositories.Store,
	contactRepo *repositories.ContactRepository,
	fileStorage filestorage.FileStorage,
	jwtService *auth.JWTService,
	config AdminConfig,
	logger zerolog.Logger,
) AdminService {
	return &adminServiceImpl{
		store:       store,
		contactRepo: contactRepo,
		fileStorage: fileStorage,
		jwtService:  jwtService,
		config:      config,
		logger:      logger,
	}
}

// CheckPassword compares against the bcrypt hash when one is configured,
// otherwise against the plain password in constant time
func (s *adminServiceImpl) CheckPassword(password string) bool {
	if password == "" {
		return false
	}
	if s.config.PasswordHash != "" {
		return auth.CheckPassword(s.config.PasswordHash, password)
	}
	if s.config.Password == "" {
		return false
	}
	return auth.CompareSecret(s.config.Password, password)
}

// Login exchanges the admin password for a token
func (s *adminServiceImpl) Login(_ context.Context, password string) (*dto.LoginResponse, error) {
	if !s.CheckPassword(password) {
		s.logger.Warn().Msg("Admin login with a wrong password")
		return nil, apperrors.NewCustomError(errors.Join(apperrors.ErrPermissionDenied, apperrors.ErrInvalidCredentials), "Invalid password")
	}

	if s.jwtService == nil {
		s.logger.Info().Msg("Admin logged in (legacy token)")
		return &dto.LoginResponse{Token: LegacyAdminToken}, nil
	}

	token, expiresAt, err := s.jwtService.GenerateAdminToken()
	if err != nil {
		return nil, apperrors.NewIOError("failed to issue admin token", err)
	}
	s.logger.Info().Time("expiresAt", expiresAt).Msg("Admin logged in")
	return &dto.LoginResponse{Token: token, ExpiresAt: &expiresAt}, nil
}

// ValidateToken accepts a signed admin JWT or, when allowed, the legacy token
func (s *adminServiceImpl) ValidateToken(token string) error {
	if token == "" {
		return apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Admin token is required")
	}

	if auth.CompareSecret(LegacyAdminToken, token) {
		if s.jwtService == nil || s.config.AllowLegacyToken {
			return nil
		}
		return apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Legacy admin token is disabled")
	}

	if s.jwtService == nil {
		return apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Invalid admin token")
	}
	if _, err := s.jwtService.ValidateToken(token); err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return apperrors.NewCustomError(apperrors.ErrTokenExpired, "Admin token has expired")
		}
		return apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Invalid admin token")
	}
	return nil
}

func wipeCollections(category models.WipeCategory) []string {
	switch category {
	case models.WipeEvents:
		return []string{
			repositories.CollectionEvents,
			repositories.CollectionParticipants,
			repositories.CollectionMessages,
			repositories.CollectionRestrictions,
		}
	case models.WipePhotos:
		return []string{repositories.CollectionPhotos}
	case models.WipeVideos:
		return []string{repositories.CollectionVideos}
	case models.WipeSchedules:
		return []string{repositories.CollectionSchedules}
	case models.WipeMessages:
		return []string{repositories.CollectionMessages, repositories.CollectionGlobalMessages}
	case models.WipeContacts:
		return []string{repositories.CollectionContacts}
	case models.WipeAll:
		return []string{
			repositories.CollectionEvents,
			repositories.CollectionParticipants,
			repositories.CollectionMessages,
			repositories.CollectionGlobalMessages,
			repositories.CollectionRestrictions,
			repositories.CollectionPhotos,
			repositories.CollectionVideos,
			repositories.CollectionSchedules,
			repositories.CollectionContacts,
		}
	}
	return nil
}

// Wipe empties the collections of a category. Settings survive every
// category; uploaded files of wiped media are removed.
func (s *adminServiceImpl) Wipe(ctx context.Context, category models.WipeCategory) (*dto.WipeResponse, error) {
	if !models.ValidWipeCategory(category) {
		return nil, apperrors.NewBadRequestError("unknown category " + string(category))
	}
	names := wipeCollections(category)

	var files []string
	var removed map[string]int
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		for _, name := range names {
			switch name {
			case repositories.CollectionPhotos:
				for _, p := range tx.Photos() {
					files = append(files, p.Path)
				}
			case repositories.CollectionVideos:
				for _, v := range tx.Videos() {
					files = append(files, v.Path)
					if strings.HasPrefix(v.Thumbnail, filestorage.DefaultURLPrefix+"/") {
						files = append(files, v.Thumbnail)
					}
				}
			}
		}
		removed = tx.Clear(names...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if category == models.WipeContacts || category == models.WipeAll {
		if s.contactRepo != nil {
			n, err := s.contactRepo.DeleteAll(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("Failed to wipe contact table")
			} else {
				removed[contactTableKey] = int(n)
			}
		}
	}

	if s.fileStorage != nil {
		for _, f := range files {
			if err := s.fileStorage.DeleteFile(f); err != nil {
				s.logger.Warn().Err(err).Str("path", f).Msg("Failed to remove wiped media file")
			}
		}
	}

	s.logger.Warn().Str("category", string(category)).Interface("removed", removed).Msg("Data wiped")
	return &dto.WipeResponse{Category: category, Removed: removed}, nil
}

// Stats counts records per collection
func (s *adminServiceImpl) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	stats := &dto.StatsResponse{}
	var fallbackContacts []models.Contact

	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		for _, e := range tx.Events() {
			stats.Events++
			if e.Status == models.StatusPending {
				stats.PendingEvents++
			}
		}
		for _, p := range tx.Photos() {
			stats.Photos++
			if p.Status == models.StatusPending {
				stats.PendingPhotos++
			}
		}
		for _, v := range tx.Videos() {
			stats.Videos++
			if v.Status == models.StatusPending {
				stats.PendingVideos++
			}
		}
		for _, sc := range tx.Schedules() {
			if sc.IsSystem() {
				stats.Schedules++
			} else {
				stats.UserSchedules++
			}
		}
		stats.Participants = tx.ParticipantTotal()
		stats.Messages = tx.MessageTotal()
		stats.GlobalMessages = len(tx.GlobalMessages())
		stats.RestrictedUsers = tx.RestrictedUserTotal()
		fallbackContacts = tx.Contacts()
		return nil
	})
	if err != nil {
		return nil, err
	}

	contacts := fallbackContacts
	if s.contactRepo != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if fromDB, err := s.contactRepo.GetAll(ctx); err == nil {
			contacts = fromDB
		} else {
			s.logger.Warn().Err(err).Msg("Contact table unavailable, counting JSON fallback")
		}
	}
	stats.Contacts = len(contacts)
	for _, c := range contacts {
		if c.Active {
			stats.ActiveContacts++
		}
	}

	return stats, nil
}
