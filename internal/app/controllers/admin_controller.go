package controllers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/services"
	"github.com/campushub/miniapp/internal/middleware"
)

// AdminController handles the admin panel operations
type AdminController struct {
	adminService        services.AdminService
	restrictionService  services.RestrictionService
	notificationService services.NotificationService
}

// NewAdminController creates a new AdminController
func NewAdminController(
	adminService services.AdminService,
	restrictionService services.RestrictionService,
	notificationService services.NotificationService,
) *AdminController {
	return &AdminController{
		adminService:        adminService,
		restrictionService:  restrictionService,
		notificationService: notificationService,
	}
}

// Login exchanges the admin password for a token
// @Summary Admin login
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Admin password"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Wrong password"
// @Router /admin/login [post]
func (c *AdminController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.adminService.Login(ctx, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, resp)
}

// ListRestrictions lists the blocked and muted users of an event chat
// @Summary List chat restrictions
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.RestrictionListResponse}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /admin/events/{id}/restrictions [get]
func (c *AdminController) ListRestrictions(ctx *gin.Context) {
	eventID := ctx.Param("id")
	restrictions, err := c.restrictionService.ListRestrictions(ctx, eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.RestrictionListResponse{EventID: eventID, Restrictions: restrictions})
}

// BlockUser bars a user from posting in an event chat
// @Summary Block a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param userId path string true "User ID"
// @Success 200 {object} dto.APIResponse{data=models.Restriction}
// @Router /admin/events/{id}/restrictions/{userId}/block [post]
func (c *AdminController) BlockUser(ctx *gin.Context) {
	c.restrict(ctx, c.restrictionService.Block)
}

// UnblockUser lifts a block
// @Summary Unblock a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param userId path string true "User ID"
// @Success 200 {object} dto.APIResponse{data=models.Restriction}
// @Router /admin/events/{id}/restrictions/{userId}/unblock [post]
func (c *AdminController) UnblockUser(ctx *gin.Context) {
	c.restrict(ctx, c.restrictionService.Unblock)
}

// MuteUser mutes a user for some minutes, or until unmuted
// @Summary Mute a user
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param userId path string true "User ID"
// @Param request body dto.MuteRequest false "Duration in minutes, omit for indefinitely"
// @Success 200 {object} dto.APIResponse{data=models.Restriction}
// @Router /admin/events/{id}/restrictions/{userId}/mute [post]
func (c *AdminController) MuteUser(ctx *gin.Context) {
	var req dto.MuteRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			middleware.HandleBindError(ctx, err)
			return
		}
	}

	userID, valid := userIDParam(ctx)
	if !valid {
		return
	}
	restriction, err := c.restrictionService.Mute(ctx, ctx.Param("id"), userID, req.Minutes)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, restriction)
}

// UnmuteUser lifts a mute
// @Summary Unmute a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param userId path string true "User ID"
// @Success 200 {object} dto.APIResponse{data=models.Restriction}
// @Router /admin/events/{id}/restrictions/{userId}/unmute [post]
func (c *AdminController) UnmuteUser(ctx *gin.Context) {
	c.restrict(ctx, c.restrictionService.Unmute)
}

func (c *AdminController) restrict(ctx *gin.Context, op func(context.Context, string, models.UserID) (*models.Restriction, error)) {
	userID, valid := userIDParam(ctx)
	if !valid {
		return
	}
	restriction, err := op(ctx, ctx.Param("id"), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, restriction)
}

// Broadcast sends a message to every active bot contact
// @Summary Broadcast a message
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BroadcastRequest true "Message"
// @Success 200 {object} dto.APIResponse{data=dto.BroadcastResult}
// @Router /admin/broadcast [post]
func (c *AdminController) Broadcast(ctx *gin.Context) {
	var req dto.BroadcastRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	result, err := c.notificationService.Broadcast(ctx.Request.Context(), req.Message)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, result)
}

// ListContacts lists the bot contacts
// @Summary List bot contacts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ContactListResponse}
// @Router /admin/contacts [get]
func (c *AdminController) ListContacts(ctx *gin.Context) {
	contacts, err := c.notificationService.ListContacts(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, contacts)
}

// Wipe clears a category of data
// @Summary Wipe data
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param category path string true "events, photos, videos, schedules, messages, contacts or all"
// @Success 200 {object} dto.APIResponse{data=dto.WipeResponse}
// @Failure 400 {object} dto.ErrorResponse "Unknown category"
// @Router /admin/data/{category} [delete]
func (c *AdminController) Wipe(ctx *gin.Context) {
	result, err := c.adminService.Wipe(ctx, models.WipeCategory(ctx.Param("category")))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, result)
}

// Stats summarises the stored data
// @Summary Data statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StatsResponse}
// @Router /admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.adminService.Stats(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, stats)
}
