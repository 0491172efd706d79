package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Survey      SurveyConfig      `mapstructure:"survey"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port           string `mapstructure:"port"`
	SessionSecret  string `mapstructure:"session_secret"`
	SecureCookies  bool   `mapstructure:"secure_cookies"`
	AdminToken     string `mapstructure:"admin_token"`
	RateLimit      int    `mapstructure:"rate_limit"`
	ReleaseMode    bool   `mapstructure:"release_mode"`
	AssetDirectory string `mapstructure:"asset_directory"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig controls the optional stream mirror of results.
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	StreamPrefix string `mapstructure:"stream_prefix"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// SurveyConfig describes the stimuli and the end-of-session behavior.
type SurveyConfig struct {
	ContentFile   string        `mapstructure:"content_file"`
	ImageDir      string        `mapstructure:"image_dir"`
	Extension     string        `mapstructure:"extension"`
	FaceCount     int           `mapstructure:"face_count"`
	RedirectURL   string        `mapstructure:"redirect_url"`
	RedirectDelay time.Duration `mapstructure:"redirect_delay"`
	ClientVersion string        `mapstructure:"client_version"`
	RunTTL        time.Duration `mapstructure:"run_ttl"`
}

// PersistenceConfig tunes the background writer for per-trial saves.
type PersistenceConfig struct {
	QueueSize    int           `mapstructure:"queue_size"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.rate_limit", 30) // new sessions per IP per minute
	v.SetDefault("server.release_mode", false)
	v.SetDefault("server.asset_directory", "assets")

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "facerate-db")
	v.SetDefault("database.sslmode", "disable")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream_prefix", "facerate:")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Survey defaults
	v.SetDefault("survey.content_file", "config/survey.yaml")
	v.SetDefault("survey.image_dir", "stimuli")
	v.SetDefault("survey.extension", "png")
	v.SetDefault("survey.face_count", 10)
	v.SetDefault("survey.redirect_url", "")
	v.SetDefault("survey.redirect_delay", 1200*time.Millisecond)
	v.SetDefault("survey.client_version", "facerate-v1")
	v.SetDefault("survey.run_ttl", 6*time.Hour)

	// Persistence defaults
	v.SetDefault("persistence.queue_size", 1024)
	v.SetDefault("persistence.write_timeout", 10*time.Second)
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("FACERATE") // e.g., FACERATE_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
