package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/services"
	"github.com/campushub/miniapp/internal/middleware"
)

// EventController handles event and roster operations
type EventController struct {
	eventService      services.EventService
	moderationService services.ModerationService
}

// NewEventController creates a new EventController
func NewEventController(eventService services.EventService, moderationService services.ModerationService) *EventController {
	return &EventController{
		eventService:      eventService,
		moderationService: moderationService,
	}
}

// ListPublicEvents lists the approved events that are still visible
// @Summary List public events
// @Description Approved events until 72 hours after they end, newest first
// @Tags events
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.EventListResponse}
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events [get]
func (c *EventController) ListPublicEvents(ctx *gin.Context) {
	events, err := c.eventService.ListPublicEvents(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.EventListResponse{Events: events, Total: len(events)})
}

// GetEvent retrieves one event
// @Summary Get event by ID
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.APIResponse{data=models.Event}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id} [get]
func (c *EventController) GetEvent(ctx *gin.Context) {
	event, err := c.eventService.GetEventByID(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, event)
}

// CreateEvent submits an event. Submissions without an admin token wait for moderation.
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Param request body dto.CreateEventRequest true "Event information"
// @Param token query string false "Admin token, publishes immediately"
// @Success 201 {object} dto.APIResponse{data=models.Event}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Router /events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	c.create(ctx, middleware.IsAdmin(ctx))
}

// AdminCreateEvent creates an already approved event
// @Summary Create an approved event
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateEventRequest true "Event information"
// @Success 201 {object} dto.APIResponse{data=models.Event}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /admin/events [post]
func (c *EventController) AdminCreateEvent(ctx *gin.Context) {
	c.create(ctx, true)
}

func (c *EventController) create(ctx *gin.Context, byAdmin bool) {
	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	event, err := c.eventService.CreateEvent(ctx, &req, byAdmin)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, event)
}

// ListAllEvents lists every event for moderation
// @Summary List all events
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=[]models.Event}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /admin/events [get]
func (c *EventController) ListAllEvents(ctx *gin.Context) {
	var filter dto.MediaFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	events, err := c.eventService.ListAllEvents(ctx, models.ModerationStatus(filter.Status))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, paginated(ctx, events))
}

// UpdateEvent edits an event
// @Summary Update an event
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body dto.UpdateEventRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Event}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /admin/events/{id} [put]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	var req dto.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	event, err := c.eventService.UpdateEvent(ctx, ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, event)
}

// DeleteEvent removes an event with its roster, chat and restrictions
// @Summary Delete an event
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /admin/events/{id} [delete]
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	if err := c.eventService.DeleteEvent(ctx, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.SuccessResponse{Message: "Event deleted"})
}

// ModerateEvent approves or rejects an event
// @Summary Moderate an event
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param action path string true "approve or reject"
// @Success 200 {object} dto.APIResponse{data=dto.ModerationResult}
// @Failure 400 {object} dto.ErrorResponse "Unknown action"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Failure 409 {object} dto.ErrorResponse "Already moderated"
// @Router /admin/events/{id}/{action} [post]
func (c *EventController) ModerateEvent(ctx *gin.Context) {
	moderate(ctx, c.moderationService, models.EntityEvent)
}

// JoinEvent adds a user to the roster
// @Summary Join an event
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.JoinEventRequest true "Participant"
// @Success 200 {object} dto.APIResponse{data=dto.JoinEventResponse}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id}/join [post]
func (c *EventController) JoinEvent(ctx *gin.Context) {
	var req dto.JoinEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	result, err := c.eventService.JoinEvent(ctx, ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, result)
}

// LeaveEvent removes a user from the roster
// @Summary Leave an event
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.LeaveEventRequest true "Participant"
// @Success 200 {object} dto.APIResponse{data=dto.JoinEventResponse}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id}/leave [post]
func (c *EventController) LeaveEvent(ctx *gin.Context) {
	var req dto.LeaveEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	result, err := c.eventService.LeaveEvent(ctx, ctx.Param("id"), req.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, result)
}

// IsJoined reports whether a user is on the roster
// @Summary Check roster membership
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Param userId query string true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.JoinedStatusResponse}
// @Router /events/{id}/joined [get]
func (c *EventController) IsJoined(ctx *gin.Context) {
	joined, err := c.eventService.IsParticipant(ctx, ctx.Param("id"), models.NormalizeUserID(ctx.Query("userId")))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.JoinedStatusResponse{Joined: joined})
}

// GetParticipants lists the roster
// @Summary List participants
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.ParticipantListResponse}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id}/participants [get]
func (c *EventController) GetParticipants(ctx *gin.Context) {
	participants, err := c.eventService.GetParticipants(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.ParticipantListResponse{Participants: participants, Count: len(participants)})
}

// moderate is shared by the event, photo and video moderation routes
func moderate(ctx *gin.Context, moderation services.ModerationService, kind models.EntityType) {
	result, err := moderation.Moderate(ctx, kind, ctx.Param("id"), models.ModerationAction(ctx.Param("action")))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, result)
}
