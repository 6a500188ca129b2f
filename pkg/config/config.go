// Package config loads vsl-go settings from the environment, with optional
// overrides from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Attribution storage backends.
const (
	StorageCookie = "cookie"
	StorageSQL    = "sql"
)

type Config struct {
	// Server Configuration
	Port               string        `env:"PORT" envDefault:"8080"`
	ServerReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	ServerWriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	ServerIdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	PublicURL          string        `env:"PUBLIC_URL" envDefault:"https://revitamax-pro.com"`
	CORSOrigins        []string      `env:"CORS_ORIGINS" envSeparator:","`
	Brotli             bool          `env:"BROTLI" envDefault:"true"`
	PrettyHTML         bool          `env:"PRETTY_HTML" envDefault:"false"`

	// Database
	DBPath          string        `env:"DB_PATH" envDefault:"db/vsl.db"`
	TursoURL        string        `env:"TURSO_DATABASE_URL"`
	TursoToken      string        `env:"TURSO_AUTH_TOKEN"`
	DBMaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns  int           `env:"DB_MAX_IDLE_CONNS" envDefault:"3"`
	DBConnMaxLife   time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBConnMaxIdle   time.Duration `env:"DB_CONN_MAX_IDLE" envDefault:"3m"`
	EventsRetention time.Duration `env:"EVENTS_RETENTION" envDefault:"2160h"`

	// Attribution
	AttributionTTL     time.Duration `env:"ATTRIBUTION_TTL" envDefault:"720h"`
	AttributionStorage string        `env:"ATTRIBUTION_STORAGE" envDefault:"cookie"`
	CookieSecret       string        `env:"COOKIE_SECRET"`
	SecureCookies      bool          `env:"SECURE_COOKIES" envDefault:"false"`

	// Sinks
	GA4MeasurementID string        `env:"GA4_MEASUREMENT_ID"`
	GA4APISecret     string        `env:"GA4_API_SECRET"`
	GA4Endpoint      string        `env:"GA4_ENDPOINT" envDefault:"https://www.google-analytics.com/mp/collect"`
	MetaPixelID      string        `env:"META_PIXEL_ID"`
	MetaAccessToken  string        `env:"META_ACCESS_TOKEN"`
	MetaEndpoint     string        `env:"META_ENDPOINT" envDefault:"https://graph.facebook.com/v19.0"`
	StoreEvents      bool          `env:"STORE_EVENTS" envDefault:"true"`
	SinkTimeout      time.Duration `env:"SINK_TIMEOUT" envDefault:"5s"`

	// Page views
	PageViewTTL     time.Duration `env:"PAGE_VIEW_TTL" envDefault:"2h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`

	// Admin
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	AdminPassword     string        `env:"ADMIN_PASSWORD"`
	JWTSecret         string        `env:"JWT_SECRET"`
	AdminTokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"12h"`

	// Email
	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"RevitaMax <pedidos@revitamax-pro.com>"`

	// Media
	AssemblyAIKey string `env:"ASSEMBLYAI_API_KEY"`
	VSLAudioURL   string `env:"VSL_AUDIO_URL"`
	VideoID       string `env:"VSL_VIDEO_ID" envDefault:"8bRCsjRE2fQ"`
	VideoTitle    string `env:"VSL_VIDEO_TITLE" envDefault:"RevitaMax Pro - Apresentação"`
	MediaDir      string `env:"MEDIA_DIR" envDefault:"media"`
	MaxUploadMB   int    `env:"MAX_UPLOAD_MB" envDefault:"10"`

	// Logging and tracing
	LogDir       string `env:"LOG_DIR" envDefault:"logs"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON      bool   `env:"LOG_JSON" envDefault:"true"`
	LogToFile    bool   `env:"LOG_TO_FILE" envDefault:"false"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"vsl-go"`
}

var envLoaded sync.Once

// loadEnvFile applies .env entries that are not already set in the process
// environment.
func loadEnvFile(path string) {
	envLoaded.Do(func() {
		if err := godotenv.Load(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("Failed to read env file", "path", path, "error", err.Error())
			}
			return
		}
		slog.Info("Loaded configuration overrides", "path", path)
	})
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	loadEnvFile(".env")
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot run with.
func (c *Config) Validate() error {
	switch c.AttributionStorage {
	case StorageCookie, StorageSQL:
	default:
		return fmt.Errorf("invalid ATTRIBUTION_STORAGE %q: want %s or %s", c.AttributionStorage, StorageCookie, StorageSQL)
	}
	if c.AttributionTTL <= 0 {
		return fmt.Errorf("ATTRIBUTION_TTL must be positive, got %s", c.AttributionTTL)
	}
	if (c.TursoURL == "") != (c.TursoToken == "") {
		return errors.New("TURSO_DATABASE_URL and TURSO_AUTH_TOKEN must be set together")
	}
	return nil
}

// UseTurso reports whether the remote libsql database is configured.
func (c *Config) UseTurso() bool {
	return c.TursoURL != "" && c.TursoToken != ""
}

// AnalyticsEnabled reports whether the GA4 sink has credentials.
func (c *Config) AnalyticsEnabled() bool {
	return c.GA4MeasurementID != "" && c.GA4APISecret != ""
}

// PixelEnabled reports whether the Meta sink has credentials.
func (c *Config) PixelEnabled() bool {
	return c.MetaPixelID != "" && c.MetaAccessToken != ""
}

// AdminEnabled reports whether an admin credential is configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminPasswordHash != "" || c.AdminPassword != ""
}

// SlogLevel maps LogLevel onto slog levels. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
