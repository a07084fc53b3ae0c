package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/services"
	"github.com/campushub/miniapp/internal/middleware"
)

// ScheduleController handles class schedules
type ScheduleController struct {
	scheduleService services.ScheduleService
}

// NewScheduleController creates a new ScheduleController
func NewScheduleController(scheduleService services.ScheduleService) *ScheduleController {
	return &ScheduleController{scheduleService: scheduleService}
}

// ListSchedules lists system schedules. Admin requests also see user copies.
// @Summary List schedules
// @Tags schedules
// @Produce json
// @Param token query string false "Admin token, or public"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleListResponse}
// @Router /schedules [get]
// @Router /admin/schedules [get]
func (c *ScheduleController) ListSchedules(ctx *gin.Context) {
	schedules, err := c.scheduleService.ListSchedules(ctx, middleware.IsAdmin(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.ScheduleListResponse{Schedules: schedules})
}

// GetSchedule retrieves one system schedule
// @Summary Get schedule by ID
// @Tags schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} dto.APIResponse{data=models.Schedule}
// @Failure 404 {object} dto.ErrorResponse "Schedule not found"
// @Router /schedules/{id} [get]
func (c *ScheduleController) GetSchedule(ctx *gin.Context) {
	schedule, err := c.scheduleService.GetSchedule(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, schedule)
}

// CreateSchedule uploads a system schedule
// @Summary Upload a schedule
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateScheduleRequest true "Schedule"
// @Success 201 {object} dto.APIResponse{data=models.Schedule}
// @Failure 400 {object} dto.ErrorResponse "Invalid schedule"
// @Router /admin/schedules [post]
func (c *ScheduleController) CreateSchedule(ctx *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	schedule, err := c.scheduleService.CreateSchedule(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, schedule)
}

// DeleteSchedule removes a schedule
// @Summary Delete a schedule
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "Schedule not found"
// @Router /admin/schedules/{id} [delete]
func (c *ScheduleController) DeleteSchedule(ctx *gin.Context) {
	if err := c.scheduleService.DeleteSchedule(ctx, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.SuccessResponse{Message: "Schedule deleted"})
}

// GetUserSchedule returns the schedule bound to a user
// @Summary Get a user's schedule
// @Tags schedules
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} dto.APIResponse{data=models.Schedule}
// @Failure 404 {object} dto.ErrorResponse "No schedule selected"
// @Router /schedules/user/{userId} [get]
func (c *ScheduleController) GetUserSchedule(ctx *gin.Context) {
	userID, valid := userIDParam(ctx)
	if !valid {
		return
	}

	schedule, err := c.scheduleService.GetUserSchedule(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, schedule)
}

// AssignSchedule binds a copy of a system schedule to a user
// @Summary Select a schedule
// @Tags schedules
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param request body dto.AssignScheduleRequest true "Schedule to copy"
// @Success 200 {object} dto.APIResponse{data=models.Schedule}
// @Failure 404 {object} dto.ErrorResponse "Schedule not found"
// @Router /schedules/user/{userId} [post]
func (c *ScheduleController) AssignSchedule(ctx *gin.Context) {
	userID, valid := userIDParam(ctx)
	if !valid {
		return
	}
	var req dto.AssignScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	schedule, err := c.scheduleService.AssignSchedule(ctx, userID, req.ScheduleID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, schedule)
}

// RemoveUserSchedule unbinds the schedule of a user
// @Summary Clear a user's schedule
// @Tags schedules
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "No schedule selected"
// @Router /schedules/user/{userId} [delete]
func (c *ScheduleController) RemoveUserSchedule(ctx *gin.Context) {
	userID, valid := userIDParam(ctx)
	if !valid {
		return
	}

	if err := c.scheduleService.RemoveUserSchedule(ctx, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.SuccessResponse{Message: "Schedule removed"})
}
