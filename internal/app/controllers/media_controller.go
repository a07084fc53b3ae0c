package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/services"
	"github.com/campushub/miniapp/internal/middleware"
)

// MediaController handles photo and video uploads
type MediaController struct {
	mediaService      services.MediaService
	moderationService services.ModerationService
}

// NewMediaController creates a new MediaController
func NewMediaController(mediaService services.MediaService, moderationService services.ModerationService) *MediaController {
	return &MediaController{
		mediaService:      mediaService,
		moderationService: moderationService,
	}
}

// ListPhotos lists approved photos
// @Summary List photos
// @Tags media
// @Produce json
// @Param eventId query string false "Only photos of this event"
// @Success 200 {object} dto.APIResponse{data=dto.PhotoListResponse}
// @Router /photos [get]
func (c *MediaController) ListPhotos(ctx *gin.Context) {
	c.listPhotos(ctx, true)
}

// AdminListPhotos lists every photo
// @Summary List all photos
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Param eventId query string false "Only photos of this event"
// @Success 200 {object} dto.APIResponse{data=dto.PhotoListResponse}
// @Router /admin/photos [get]
func (c *MediaController) AdminListPhotos(ctx *gin.Context) {
	c.listPhotos(ctx, false)
}

func (c *MediaController) listPhotos(ctx *gin.Context, publicOnly bool) {
	var filter dto.MediaFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	photos, err := c.mediaService.ListPhotos(ctx, &filter, publicOnly)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.PhotoListResponse{Photos: photos})
}

// UploadPhoto stores a photo for moderation
// @Summary Upload a photo
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Image file"
// @Param userId formData string false "Uploader id"
// @Param userName formData string false "Uploader name"
// @Param eventId formData string false "Event the photo belongs to"
// @Param description formData string false "Caption"
// @Success 201 {object} dto.APIResponse{data=models.Photo}
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid file"
// @Router /photos [post]
func (c *MediaController) UploadPhoto(ctx *gin.Context) {
	var req dto.UploadPhotoRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}
	file, _ := ctx.FormFile("photo")

	photo, err := c.mediaService.UploadPhoto(ctx, file, &req, middleware.IsAdmin(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, photo)
}

// ModeratePhoto approves or rejects a photo
// @Summary Moderate a photo
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Param action path string true "approve or reject"
// @Success 200 {object} dto.APIResponse{data=dto.ModerationResult}
// @Failure 404 {object} dto.ErrorResponse "Photo not found"
// @Failure 409 {object} dto.ErrorResponse "Already moderated"
// @Router /admin/photos/{id}/{action} [post]
func (c *MediaController) ModeratePhoto(ctx *gin.Context) {
	moderate(ctx, c.moderationService, models.EntityPhoto)
}

// DeletePhoto removes a photo and its file
// @Summary Delete a photo
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "Photo not found"
// @Router /admin/photos/{id} [delete]
func (c *MediaController) DeletePhoto(ctx *gin.Context) {
	if err := c.mediaService.DeletePhoto(ctx, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.SuccessResponse{Message: "Photo deleted"})
}

// ListVideos lists approved videos
// @Summary List videos
// @Tags media
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.VideoListResponse}
// @Router /videos [get]
func (c *MediaController) ListVideos(ctx *gin.Context) {
	c.listVideos(ctx, true)
}

// AdminListVideos lists every video
// @Summary List all videos
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} dto.APIResponse{data=dto.VideoListResponse}
// @Router /admin/videos [get]
func (c *MediaController) AdminListVideos(ctx *gin.Context) {
	c.listVideos(ctx, false)
}

func (c *MediaController) listVideos(ctx *gin.Context, publicOnly bool) {
	var filter dto.MediaFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	videos, err := c.mediaService.ListVideos(ctx, &filter, publicOnly)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.VideoListResponse{Videos: videos})
}

// UploadVideo stores a video with an optional thumbnail
// @Summary Upload a video
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param video formData file true "Video file"
// @Param thumbnail formData file false "Thumbnail image"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Success 201 {object} dto.APIResponse{data=models.Video}
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid file"
// @Router /videos [post]
func (c *MediaController) UploadVideo(ctx *gin.Context) {
	var req dto.UploadVideoRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}
	file, _ := ctx.FormFile("video")
	thumbnail, _ := ctx.FormFile("thumbnail")

	video, err := c.mediaService.UploadVideo(ctx, file, thumbnail, &req, middleware.IsAdmin(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, video)
}

// ModerateVideo approves or rejects a video
// @Summary Moderate a video
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Video ID"
// @Param action path string true "approve or reject"
// @Success 200 {object} dto.APIResponse{data=dto.ModerationResult}
// @Failure 404 {object} dto.ErrorResponse "Video not found"
// @Failure 409 {object} dto.ErrorResponse "Already moderated"
// @Router /admin/videos/{id}/{action} [post]
func (c *MediaController) ModerateVideo(ctx *gin.Context) {
	moderate(ctx, c.moderationService, models.EntityVideo)
}

// DeleteVideo removes a video and its files
// @Summary Delete a video
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Video ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "Video not found"
// @Router /admin/videos/{id} [delete]
func (c *MediaController) DeleteVideo(ctx *gin.Context) {
	if err := c.mediaService.DeleteVideo(ctx, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.SuccessResponse{Message: "Video deleted"})
}
