package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/campushub/miniapp/internal/app/controllers"
	appMigrations "github.com/campushub/miniapp/internal/app/migrations"
	appRepos "github.com/campushub/miniapp/internal/app/repositories"
	appRoutes "github.com/campushub/miniapp/internal/app/routes"
	appServices "github.com/campushub/miniapp/internal/app/services"
	"github.com/campushub/miniapp/internal/config"
	"github.com/campushub/miniapp/internal/db"
	appMiddleware "github.com/campushub/miniapp/internal/middleware"
	pkgAuth "github.com/campushub/miniapp/internal/pkg/auth"
	"github.com/campushub/miniapp/internal/pkg/filestorage"
	"github.com/campushub/miniapp/internal/pkg/helpers"
	"github.com/campushub/miniapp/internal/pkg/jsonstore"
	"github.com/campushub/miniapp/internal/pkg/logger"
	"github.com/campushub/miniapp/internal/pkg/notify"
	"github.com/campushub/miniapp/internal/pkg/presence"
	"github.com/campushub/miniapp/internal/pkg/telegram"
	"github.com/campushub/miniapp/internal/pkg/websocket"
	"github.com/campushub/miniapp/internal/seed"
)

// uploadsRoute is the URL path the upload directory is served under
const uploadsRoute = "/uploads"

// Dependencies holds all the application dependencies
type Dependencies struct {
	EventService        appServices.EventService
	ChatService         appServices.ChatService
	RestrictionService  appServices.RestrictionService
	MediaService        appServices.MediaService
	ScheduleService     appServices.ScheduleService
	SettingsService     appServices.SettingsService
	ModerationService   appServices.ModerationService
	NotificationService appServices.NotificationService
	AdminService        appServices.AdminService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware

	Database       *db.Database // nil when the relational store is unreachable
	Mirror         *jsonstore.Mirror
	Repos          *appRepos.Repositories
	Hub            *websocket.Hub
	MessageHandler *websocket.MessageHandler
	Bot            *telegram.Bot // nil without a bot token
	JWTService     *pkgAuth.JWTService
	FileStorage    *filestorage.LocalStorage
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase opens the relational store and runs migrations. With the file
// backend a failure is not fatal: contacts fall back to the JSON documents and
// a nil Database is returned.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.Database, error) {
	lgr.Info().Str("driver", cfg.Database.Driver).Msg("Establishing database connection...")

	database, err := db.NewDatabase(cfg)
	if err == nil {
		lgr.Info().Msg("Database connection successfully established.")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		lgr.Info().Msg("Running database migrations...")
		migrator := appMigrations.NewMigrator(database.DB, database.Builder, lgr)
		if err = migrator.Migrate(ctx); err == nil {
			lgr.Info().Msg("Database migrations successfully applied.")
			return database, nil
		}
		database.Close()
		err = fmt.Errorf("database migrations failed: %w", err)
	}

	if cfg.Storage.Backend == config.StorageBackendSQL {
		lgr.Error().Err(err).Msg("Database unavailable and documents are stored in it")
		return nil, err
	}

	lgr.Warn().Err(err).Msg("Database unavailable, bot contacts fall back to the document store")
	return nil, nil
}

// BuildDependencies initializes the document store, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.Database, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr, Database: database}
	clock := helpers.Clock(helpers.SystemClock)

	// Document store
	var repo jsonstore.Repository
	if cfg.Storage.Backend == config.StorageBackendSQL {
		repo = jsonstore.NewSQLRepository(database.DB, database.Builder)
	} else {
		fileRepo, err := jsonstore.NewFileRepository(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize data directory: %w", err)
		}
		repo = fileRepo
	}

	deps.Mirror = jsonstore.NewMirror(repo, logger.Component("jsonstore"))
	deps.Mirror.SetSaveTimeout(helpers.ParseDuration(cfg.Storage.SaveTimeout, 10*time.Second))

	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store, err := appRepos.NewStore(loadCtx, deps.Mirror, logger.Component("store"))
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	deps.Repos = appRepos.NewRepositories(store, database)

	// File storage
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, uploadsRoute)
	if err == nil {
		_, err = deps.FileStorage.WithPublicURL(cfg.Server.PublicURL)
	}
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	if cfg.Admin.JWTSecret != "" {
		deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
			SecretKey:      cfg.Admin.JWTSecret,
			AccessTokenExp: helpers.ParseDuration(cfg.Admin.TokenExpiration, 24*time.Hour),
		})
	} else {
		lgr.Warn().Msg("No JWT secret configured, the admin panel uses the legacy token")
	}

	// Transport for moderation requests and broadcasts
	var transport notify.Transport = notify.NewNoopTransport(logger.Component("notify"))
	if cfg.Telegram.Token != "" {
		deps.Bot, err = telegram.NewBot(telegram.Config{
			Token:       cfg.Telegram.Token,
			PollTimeout: helpers.ParseDuration(cfg.Telegram.PollTimeout, 10*time.Second),
			WebAppURL:   cfg.Telegram.WebAppURL,
		}, logger.Component("telegram"))
		if err != nil {
			return nil, err
		}
		transport = deps.Bot
	} else {
		lgr.Warn().Msg("No Telegram token configured, notifications are only logged")
	}

	deps.Hub = websocket.NewHub(logger.Component("websocket"))
	tracker := presence.NewTracker(helpers.ParseDuration(cfg.Events.TypingTTL, presence.DefaultTTL), clock)

	rules := appServices.EventRules{
		DefaultDuration:  cfg.Events.DefaultDuration,
		MaxDuration:      cfg.Events.MaxDuration,
		VisibilityGrace:  helpers.ParseDuration(cfg.Events.VisibilityGrace, 72*time.Hour),
		MaxMessageLength: cfg.Events.MaxMessageLength,
	}

	// Services
	deps.ModerationService = appServices.NewModerationService(store, clock, logger.Component("moderation"))
	deps.NotificationService = appServices.NewNotificationService(
		store,
		deps.Repos.ContactRepository,
		transport,
		deps.ModerationService,
		deps.FileStorage,
		appServices.NotificationConfig{
			AdminChatIDs:      cfg.Telegram.AdminChatIDs,
			BroadcastInterval: helpers.ParseDuration(cfg.Telegram.BroadcastInterval, 50*time.Millisecond),
		},
		clock,
		logger.Component("notifications"),
	)
	deps.EventService = appServices.NewEventService(store, tracker, deps.Hub, deps.NotificationService, rules, clock, logger.Component("events"))
	deps.ChatService = appServices.NewChatService(store, tracker, deps.Hub, rules, clock, logger.Component("chat"))
	deps.RestrictionService = appServices.NewRestrictionService(store, clock, logger.Component("restrictions"))
	deps.MediaService = appServices.NewMediaService(
		store,
		deps.FileStorage,
		deps.NotificationService,
		appServices.MediaConfig{
			MaxUploadBytes:   int64(cfg.Server.MaxUploadMB) << 20,
			DefaultThumbnail: cfg.Media.DefaultThumbnail,
		},
		clock,
		logger.Component("media"),
	)
	deps.ScheduleService = appServices.NewScheduleService(store, clock, logger.Component("schedules"))
	deps.SettingsService = appServices.NewSettingsService(store, logger.Component("settings"))
	deps.AdminService = appServices.NewAdminService(
		store,
		deps.Repos.ContactRepository,
		deps.FileStorage,
		deps.JWTService,
		appServices.AdminConfig{
			Password:         cfg.Admin.Password,
			PasswordHash:     cfg.Admin.PasswordHash,
			AllowLegacyToken: cfg.Admin.AllowLegacyToken,
		},
		logger.Component("admin"),
	)

	if deps.Bot != nil {
		deps.Bot.Register(deps.NotificationService, deps.AdminService)
	}

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer seedCancel()
	if err := seed.CreateDefaultData(seedCtx, deps.SettingsService, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	// Live chat
	deps.MessageHandler = websocket.NewMessageHandler(deps.Hub, deps.ChatService, logger.Component("websocket"))
	eventService := deps.EventService
	wsHandler := websocket.NewHandler(deps.Hub, func(ctx context.Context, scope string) error {
		if scope == websocket.GlobalScope {
			return nil
		}
		return eventService.EventExists(ctx, scope)
	}, logger.Component("websocket"))

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.AdminService)

	var ping func(ctx context.Context) error
	if database != nil {
		ping = database.DB.PingContext
	}

	deps.Controllers = appRoutes.Controllers{
		Event:    appControllers.NewEventController(deps.EventService, deps.ModerationService),
		Chat:     appControllers.NewChatController(deps.ChatService),
		Media:    appControllers.NewMediaController(deps.MediaService, deps.ModerationService),
		Schedule: appControllers.NewScheduleController(deps.ScheduleService),
		Settings: appControllers.NewSettingsController(deps.SettingsService, ping),
		Admin:    appControllers.NewAdminController(deps.AdminService, deps.RestrictionService, deps.NotificationService),
		WS:       wsHandler,
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(logger.Component("http")))
	router.Use(appMiddleware.CORS())
	router.MaxMultipartMemory = int64(cfg.Server.MaxUploadMB) << 20

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.Static(uploadsRoute, deps.FileStorage.BasePath())
	lgr.Info().Str("path", deps.FileStorage.BasePath()).Msg("Static file serving configured for uploads directory")

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
