package controllers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/services"
	"github.com/campushub/miniapp/internal/middleware"
)

// SettingsController handles site settings and the health probe
type SettingsController struct {
	settingsService services.SettingsService
	ping            func(ctx context.Context) error
	startedAt       time.Time
}

// NewSettingsController creates a new SettingsController. ping checks the
// relational database and may be nil.
func NewSettingsController(settingsService services.SettingsService, ping func(ctx context.Context) error) *SettingsController {
	return &SettingsController{
		settingsService: settingsService,
		ping:            ping,
		startedAt:       time.Now(),
	}
}

// GetSettings returns the site settings
// @Summary Get settings
// @Tags settings
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.Settings}
// @Router /settings [get]
func (c *SettingsController) GetSettings(ctx *gin.Context) {
	settings, err := c.settingsService.GetSettings(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, settings)
}

// UpdateSettings merges the posted keys into the settings. An empty value removes a key.
// @Summary Update settings
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Settings true "Keys to change"
// @Success 200 {object} dto.APIResponse{data=models.Settings}
// @Failure 400 {object} dto.ErrorResponse "Invalid settings"
// @Router /admin/settings [put]
func (c *SettingsController) UpdateSettings(ctx *gin.Context) {
	var update models.Settings
	if err := ctx.ShouldBindJSON(&update); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	settings, err := c.settingsService.UpdateSettings(ctx, update)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, settings)
}

// HealthResponse describes the service state
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// Health reports whether the service is up
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse{data=HealthResponse}
// @Router /health [get]
func (c *SettingsController) Health(ctx *gin.Context) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "disabled",
		Uptime:   time.Since(c.startedAt).Round(time.Second).String(),
	}

	if c.ping != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := c.ping(pingCtx); err != nil {
			// contacts fall back to the document store, so the API stays usable
			resp.Status = "degraded"
			resp.Database = "unreachable"
		} else {
			resp.Database = "ok"
		}
	}

	ok(ctx, resp)
}
