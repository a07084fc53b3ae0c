package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/filestorage"
	"github.com/campushub/miniapp/internal/pkg/helpers"
)

// Storage subdirectories of uploaded media
const (
	photoDir     = "photos"
	videoDir     = "videos"
	thumbnailDir = "thumbnails"
)

var (
	photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true}
	videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".webm": true, ".m4v": true, ".avi": true, ".mkv": true}
)

// MediaConfig bounds uploads
type MediaConfig struct {
	MaxUploadBytes   int64
	DefaultThumbnail string
}

// MediaService defines the interface for photo and video galleries
type MediaService interface {
	UploadPhoto(ctx context.Context, file *multipart.FileHeader, req *dto.UploadPhotoRequest, byAdmin bool) (*models.Photo, error)
	UploadVideo(ctx context.Context, file, thumbnail *multipart.FileHeader, req *dto.UploadVideoRequest, byAdmin bool) (*models.Video, error)
	ListPhotos(ctx context.Context, filter *dto.MediaFilterRequest, publicOnly bool) ([]models.Photo, error)
	ListVideos(ctx context.Context, filter *dto.MediaFilterRequest, publicOnly bool) ([]models.Video, error)
	DeletePhoto(ctx context.Context, id string) error
	DeleteVideo(ctx context.Context, id string) error
}

type mediaServiceImpl struct {
	store       *repositories.Store
	fileStorage filestorage.FileStorage
	notifier    ModerationNotifier
	config      MediaConfig
	clock       helpers.Clock
	logger      zerolog.Logger
}

// NewMediaService creates a new MediaService. notifier may be nil.
func NewMediaService(
	store *repositories.Store,
	fileStorage filestorage.FileStorage,
	notifier ModerationNotifier,
	config MediaConfig,
	clock helpers.Clock,
	logger zerolog.Logger,
) MediaService {
	return &mediaServiceImpl{
		store:       store,
		fileStorage: fileStorage,
		notifier:    notifier,
		config:      config,
		clock:       clockOrDefault(clock),
		logger:      logger,
	}
}

func (s *mediaServiceImpl) checkUpload(field string, file *multipart.FileHeader, allowed map[string]bool) error {
	if file == nil {
		return apperrors.NewValidationError(field, field+" file is required")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowed[ext] {
		return apperrors.NewValidationError(field, fmt.Sprintf("unsupported file type %q", ext))
	}
	if s.config.MaxUploadBytes > 0 && file.Size > s.config.MaxUploadBytes {
		return apperrors.NewValidationError(field, fmt.Sprintf("file exceeds %d bytes", s.config.MaxUploadBytes))
	}
	return nil
}

// initialStatus approves admin uploads and uploads made while review is off
func initialStatus(m *models.Moderation, byAdmin bool, settings models.Settings, now time.Time) {
	if byAdmin || !moderationEnabled(settings) {
		m.Approve(now)
		return
	}
	m.Status = models.StatusPending
}

// UploadPhoto stores the image and records it, pending review unless uploaded by an admin
func (s *mediaServiceImpl) UploadPhoto(ctx context.Context, file *multipart.FileHeader, req *dto.UploadPhotoRequest, byAdmin bool) (*models.Photo, error) {
	if err := s.checkUpload("photo", file, photoExtensions); err != nil {
		return nil, err
	}

	publicPath, err := s.fileStorage.SaveFileWithPath(file, photoDir)
	if err != nil {
		return nil, apperrors.NewIOError("failed to store photo", err)
	}

	now := s.clock()
	var created models.Photo
	err = s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		photo := &models.Photo{
			ID:          helpers.NewTimeID(now),
			Path:        publicPath,
			UserID:      models.NormalizeUserID(req.UserID),
			UserName:    strings.TrimSpace(req.UserName),
			UploadedAt:  now,
			EventID:     strings.TrimSpace(req.EventID),
			Description: strings.TrimSpace(req.Description),
		}
		initialStatus(&photo.Moderation, byAdmin, tx.Settings(), now)
		tx.InsertPhoto(photo)
		created = *photo
		return nil
	})
	if err != nil {
		_ = s.fileStorage.DeleteFile(publicPath)
		return nil, err
	}

	s.logger.Info().Str("photoID", created.ID).Str("path", created.Path).Str("status", string(created.Status)).Msg("Photo uploaded")
	if created.Status == models.StatusPending && s.notifier != nil {
		s.notifier.NotifyModerationAsync(models.EntityPhoto, created.ID)
	}
	created = s.renderPhoto(created)
	return &created, nil
}

// UploadVideo stores the clip and an optional thumbnail
func (s *mediaServiceImpl) UploadVideo(ctx context.Context, file, thumbnail *multipart.FileHeader, req *dto.UploadVideoRequest, byAdmin bool) (*models.Video, error) {
	if err := s.checkUpload("video", file, videoExtensions); err != nil {
		return nil, err
	}
	if thumbnail != nil {
		if err := s.checkUpload("thumbnail", thumbnail, photoExtensions); err != nil {
			return nil, err
		}
	}

	publicPath, err := s.fileStorage.SaveFileWithPath(file, videoDir)
	if err != nil {
		return nil, apperrors.NewIOError("failed to store video", err)
	}

	thumbPath := s.config.DefaultThumbnail
	if thumbnail != nil {
		saved, err := s.fileStorage.SaveFileWithPath(thumbnail, thumbnailDir)
		if err != nil {
			_ = s.fileStorage.DeleteFile(publicPath)
			return nil, apperrors.NewIOError("failed to store thumbnail", err)
		}
		thumbPath = saved
	}

	now := s.clock()
	var created models.Video
	err = s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		video := &models.Video{
			ID:          helpers.NewTimeID(now),
			Path:        publicPath,
			UserID:      models.NormalizeUserID(req.UserID),
			UserName:    strings.TrimSpace(req.UserName),
			UploadedAt:  now,
			Size:        file.Size,
			Thumbnail:   thumbPath,
			Title:       strings.TrimSpace(req.Title),
			Description: strings.TrimSpace(req.Description),
		}
		initialStatus(&video.Moderation, byAdmin, tx.Settings(), now)
		tx.InsertVideo(video)
		created = *video
		return nil
	})
	if err != nil {
		s.removeFiles(publicPath, ownThumbnail(thumbPath, s.config.DefaultThumbnail))
		return nil, err
	}

	s.logger.Info().Str("videoID", created.ID).Str("path", created.Path).Str("status", string(created.Status)).Msg("Video uploaded")
	if created.Status == models.StatusPending && s.notifier != nil {
		s.notifier.NotifyModerationAsync(models.EntityVideo, created.ID)
	}
	created = s.renderVideo(created)
	return &created, nil
}

// renderPhoto and renderVideo turn stored paths into client URLs on copies
func (s *mediaServiceImpl) renderPhoto(p models.Photo) models.Photo {
	p.Path = s.fileStorage.URL(p.Path)
	return p
}

func (s *mediaServiceImpl) renderVideo(v models.Video) models.Video {
	v.Path = s.fileStorage.URL(v.Path)
	v.Thumbnail = s.fileStorage.URL(v.Thumbnail)
	return v
}

func ownThumbnail(path, placeholder string) string {
	if path == placeholder {
		return ""
	}
	return path
}

func (s *mediaServiceImpl) removeFiles(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.fileStorage.DeleteFile(p); err != nil {
			s.logger.Warn().Err(err).Str("path", p).Msg("Failed to remove media file")
		}
	}
}

func matchesFilter(m models.Moderation, eventID string, filter *dto.MediaFilterRequest, publicOnly bool) bool {
	if publicOnly && !m.IsEffectivelyApproved() {
		return false
	}
	if filter == nil {
		return true
	}
	if filter.Status != "" {
		status := models.ModerationStatus(filter.Status)
		if status == models.StatusApproved && !m.IsEffectivelyApproved() {
			return false
		}
		if status != models.StatusApproved && m.Status != status {
			return false
		}
	}
	return filter.EventID == "" || filter.EventID == eventID
}

// ListPhotos returns photos newest first; publicOnly hides anything not approved
func (s *mediaServiceImpl) ListPhotos(ctx context.Context, filter *dto.MediaFilterRequest, publicOnly bool) ([]models.Photo, error) {
	photos := []models.Photo{}
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		for _, p := range tx.Photos() {
			if matchesFilter(p.Moderation, p.EventID, filter, publicOnly) {
				photos = append(photos, s.renderPhoto(*p))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(photos, func(i, j int) bool { return photos[i].UploadedAt.After(photos[j].UploadedAt) })
	return photos, nil
}

// ListVideos returns videos newest first; publicOnly hides anything not approved
func (s *mediaServiceImpl) ListVideos(ctx context.Context, filter *dto.MediaFilterRequest, publicOnly bool) ([]models.Video, error) {
	videos := []models.Video{}
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		for _, v := range tx.Videos() {
			if matchesFilter(v.Moderation, "", filter, publicOnly) {
				videos = append(videos, s.renderVideo(*v))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(videos, func(i, j int) bool { return videos[i].UploadedAt.After(videos[j].UploadedAt) })
	return videos, nil
}

// DeletePhoto removes the record and its file
func (s *mediaServiceImpl) DeletePhoto(ctx context.Context, id string) error {
	var removed *models.Photo
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		photo, ok := tx.DeletePhoto(id)
		if !ok {
			return photoNotFound(id)
		}
		removed = photo
		return nil
	})
	if err != nil {
		return err
	}

	s.removeFiles(removed.Path)
	s.logger.Info().Str("photoID", id).Msg("Photo deleted")
	return nil
}

// DeleteVideo removes the record, the clip and an uploaded thumbnail
func (s *mediaServiceImpl) DeleteVideo(ctx context.Context, id string) error {
	var removed *models.Video
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		video, ok := tx.DeleteVideo(id)
		if !ok {
			return videoNotFound(id)
		}
		removed = video
		return nil
	})
	if err != nil {
		return err
	}

	s.removeFiles(removed.Path, ownThumbnail(removed.Thumbnail, s.config.DefaultThumbnail))
	s.logger.Info().Str("videoID", id).Msg("Video deleted")
	return nil
}
