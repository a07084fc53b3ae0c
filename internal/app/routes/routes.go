package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/miniapp/internal/app/controllers"
	"github.com/campushub/miniapp/internal/middleware"
	"github.com/campushub/miniapp/internal/pkg/websocket"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Event    *controllers.EventController
	Chat     *controllers.ChatController
	Media    *controllers.MediaController
	Schedule *controllers.ScheduleController
	Settings *controllers.SettingsController
	Admin    *controllers.AdminController
	WS       *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	api := router.Group("/api")
	optionalAdmin := authMiddleware.OptionalAdmin()

	api.GET("/health", c.Settings.Health)
	api.GET("/settings", c.Settings.GetSettings)

	// --- Public event routes ---
	events := api.Group("/events")
	{
		events.GET("", c.Event.ListPublicEvents)
		events.POST("", optionalAdmin, c.Event.CreateEvent)
		events.GET("/:id", c.Event.GetEvent)

		events.POST("/:id/join", c.Event.JoinEvent)
		events.POST("/:id/leave", c.Event.LeaveEvent)
		events.GET("/:id/joined", c.Event.IsJoined)
		events.GET("/:id/participants", c.Event.GetParticipants)

		events.GET("/:id/messages", c.Chat.GetMessages)
		events.POST("/:id/messages", c.Chat.PostMessage)
		events.GET("/:id/typing", c.Chat.GetTyping)
		events.POST("/:id/typing", c.Chat.SetTyping)
		events.GET("/:id/ws", c.WS.HandleEventConnection)
	}

	// --- Sitewide chat ---
	chat := api.Group("/chat")
	{
		chat.GET("/messages", c.Chat.GetGlobalMessages)
		chat.POST("/messages", c.Chat.PostGlobalMessage)
		chat.GET("/typing", c.Chat.GetGlobalTyping)
		chat.POST("/typing", c.Chat.SetGlobalTyping)
		chat.GET("/ws", c.WS.HandleGlobalConnection)
	}

	// --- Media ---
	api.GET("/photos", c.Media.ListPhotos)
	api.POST("/photos", optionalAdmin, c.Media.UploadPhoto)
	api.GET("/videos", c.Media.ListVideos)
	api.POST("/videos", optionalAdmin, c.Media.UploadVideo)

	// --- Schedules ---
	schedules := api.Group("/schedules")
	{
		schedules.GET("", c.Schedule.ListSchedules)
		schedules.GET("/:id", c.Schedule.GetSchedule)
		schedules.GET("/user/:userId", c.Schedule.GetUserSchedule)
		schedules.POST("/user/:userId", c.Schedule.AssignSchedule)
		schedules.DELETE("/user/:userId", c.Schedule.RemoveUserSchedule)
	}

	// --- Admin routes that answer without a token ---
	api.POST("/admin/login", c.Admin.Login)
	api.GET("/admin/schedules", optionalAdmin, c.Schedule.ListSchedules)

	// --- Admin routes ---
	admin := api.Group("/admin")
	admin.Use(authMiddleware.AdminAuth())
	{
		admin.GET("/events", c.Event.ListAllEvents)
		admin.POST("/events", c.Event.AdminCreateEvent)
		admin.PUT("/events/:id", c.Event.UpdateEvent)
		admin.DELETE("/events/:id", c.Event.DeleteEvent)
		admin.POST("/events/:id/:action", c.Event.ModerateEvent)
		admin.DELETE("/events/:id/messages/:messageId", c.Chat.DeleteMessage)

		admin.GET("/events/:id/restrictions", c.Admin.ListRestrictions)
		admin.POST("/events/:id/restrictions/:userId/block", c.Admin.BlockUser)
		admin.POST("/events/:id/restrictions/:userId/unblock", c.Admin.UnblockUser)
		admin.POST("/events/:id/restrictions/:userId/mute", c.Admin.MuteUser)
		admin.POST("/events/:id/restrictions/:userId/unmute", c.Admin.UnmuteUser)

		admin.GET("/photos", c.Media.AdminListPhotos)
		admin.POST("/photos/:id/:action", c.Media.ModeratePhoto)
		admin.DELETE("/photos/:id", c.Media.DeletePhoto)
		admin.GET("/videos", c.Media.AdminListVideos)
		admin.POST("/videos/:id/:action", c.Media.ModerateVideo)
		admin.DELETE("/videos/:id", c.Media.DeleteVideo)

		admin.POST("/schedules", c.Schedule.CreateSchedule)
		admin.DELETE("/schedules/:id", c.Schedule.DeleteSchedule)

		admin.PUT("/settings", c.Settings.UpdateSettings)
		admin.POST("/broadcast", c.Admin.Broadcast)
		admin.GET("/contacts", c.Admin.ListContacts)
		admin.DELETE("/data/:category", c.Admin.Wipe)
		admin.GET("/stats", c.Admin.Stats)
	}
}
