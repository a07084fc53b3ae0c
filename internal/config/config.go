package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends for the collection documents
const (
	StorageBackendFile = "file"
	StorageBackendSQL  = "sql"
)

// Database drivers for the relational store
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port        string `yaml:"port" env:"SERVER_PORT"`
		Mode        string `yaml:"mode" env:"SERVER_MODE"`
		StoragePath string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		PublicURL   string `yaml:"public_url" env:"SERVER_PUBLIC_URL"`
		MaxUploadMB int    `yaml:"max_upload_mb" env:"SERVER_MAX_UPLOAD_MB"`
	} `yaml:"server"`

	Storage struct {
		Backend     string `yaml:"backend" env:"STORAGE_BACKEND"`
		DataDir     string `yaml:"data_dir" env:"STORAGE_DATA_DIR"`
		SaveTimeout string `yaml:"save_timeout" env:"STORAGE_SAVE_TIMEOUT"`
	} `yaml:"storage"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		DSN             string `yaml:"dsn" env:"DB_DSN"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	Events struct {
		DefaultDuration  int    `yaml:"default_duration" env:"EVENTS_DEFAULT_DURATION"`
		MaxDuration      int    `yaml:"max_duration" env:"EVENTS_MAX_DURATION"`
		VisibilityGrace  string `yaml:"visibility_grace" env:"EVENTS_VISIBILITY_GRACE"`
		TypingTTL        string `yaml:"typing_ttl" env:"EVENTS_TYPING_TTL"`
		MaxMessageLength int    `yaml:"max_message_length" env:"EVENTS_MAX_MESSAGE_LENGTH"`
	} `yaml:"events"`

	Admin struct {
		Password         string `yaml:"password" env:"ADMIN_PASSWORD"`
		PasswordHash     string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
		JWTSecret        string `yaml:"jwt_secret" env:"ADMIN_JWT_SECRET"`
		TokenExpiration  string `yaml:"token_expiration" env:"ADMIN_TOKEN_EXPIRATION"`
		AllowLegacyToken bool   `yaml:"allow_legacy_token" env:"ADMIN_ALLOW_LEGACY_TOKEN"`
	} `yaml:"admin"`

	Telegram struct {
		Token             string  `yaml:"token" env:"TELEGRAM_TOKEN"`
		AdminChatIDs      []int64 `yaml:"admin_chat_ids" env:"TELEGRAM_ADMIN_CHAT_IDS"`
		BroadcastInterval string  `yaml:"broadcast_interval" env:"TELEGRAM_BROADCAST_INTERVAL"`
		PollTimeout       string  `yaml:"poll_timeout" env:"TELEGRAM_POLL_TIMEOUT"`
		WebAppURL         string  `yaml:"webapp_url" env:"TELEGRAM_WEBAPP_URL"`
	} `yaml:"telegram"`

	Media struct {
		DefaultThumbnail string `yaml:"default_thumbnail" env:"MEDIA_DEFAULT_THUMBNAIL"`
	} `yaml:"media"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file, a .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// .env only fills variables that are not already set in the environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "3000"
	config.Server.Mode = "development"
	config.Server.StoragePath = "uploads"
	config.Server.MaxUploadMB = 100

	config.Storage.Backend = StorageBackendFile
	config.Storage.DataDir = "data"
	config.Storage.SaveTimeout = "10s"

	config.Database.Driver = DriverSQLite
	config.Database.DSN = "file:data/bot.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	config.Database.MaxOpenConns = 1
	config.Database.MaxIdleConns = 1
	config.Database.ConnMaxLifetime = "1h"

	config.Events.DefaultDuration = 24
	config.Events.MaxDuration = 720
	config.Events.VisibilityGrace = "72h"
	config.Events.TypingTTL = "5s"
	config.Events.MaxMessageLength = 2000

	config.Admin.TokenExpiration = "24h"
	config.Admin.AllowLegacyToken = true

	config.Telegram.BroadcastInterval = "50ms"
	config.Telegram.PollTimeout = "10s"

	config.Media.DefaultThumbnail = "/images/video-placeholder.png"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch config.Storage.Backend {
	case StorageBackendFile, StorageBackendSQL:
	default:
		return fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}

	switch strings.ToLower(config.Database.Driver) {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}

	if config.Admin.Password == "" && config.Admin.PasswordHash == "" {
		return fmt.Errorf("admin password or password hash is required")
	}

	if config.Events.DefaultDuration <= 0 || config.Events.MaxDuration < config.Events.DefaultDuration {
		return fmt.Errorf("invalid event duration bounds: default %d, max %d",
			config.Events.DefaultDuration, config.Events.MaxDuration)
	}

	for name, value := range map[string]string{
		"events.visibility_grace":     config.Events.VisibilityGrace,
		"events.typing_ttl":           config.Events.TypingTTL,
		"admin.token_expiration":      config.Admin.TokenExpiration,
		"telegram.broadcast_interval": config.Telegram.BroadcastInterval,
		"storage.save_timeout":        config.Storage.SaveTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s duration: %w", name, err)
		}
	}

	return nil
}

// IsProduction reports whether gin should run in release mode
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Server.Mode) == "production"
}
