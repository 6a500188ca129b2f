package cleanup

import (
	"log/slog"
	"time"

	"github.com/AtRiskMedia/vsl-go/pkg/config"
)

// Config holds cleanup worker configuration, sourced from the central config package.
type Config struct {
	CleanupInterval  time.Duration
	VerboseReporting bool
	AttributionTTL   time.Duration
	EventsRetention  time.Duration
}

// NewConfig derives the worker configuration from the loaded settings.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		CleanupInterval:  cfg.CleanupInterval,
		VerboseReporting: cfg.SlogLevel() == slog.LevelDebug,
		AttributionTTL:   cfg.AttributionTTL,
		EventsRetention:  cfg.EventsRetention,
	}
}
