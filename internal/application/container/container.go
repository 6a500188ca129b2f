// Package container provides dependency injection for all singleton services
package container

import (
	"context"
	"errors"
	"fmt"

	"github.com/AtRiskMedia/vsl-go/internal/application/services"
	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/domain/catalog"
	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/caching"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/caching/cleanup"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/email"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/performance"
	analyticsrepo "github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/analytics"
	attrrepo "github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/database"
	mediarepo "github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/media"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/orders"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/sinks"
	"github.com/AtRiskMedia/vsl-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	Config *config.Config

	// Application Services
	AttributionService *services.AttributionService
	TrackingService    *services.TrackingService
	PageService        *services.PageService
	CheckoutService    *services.CheckoutService
	MediaService       *services.MediaService
	AuthService        *services.AuthService
	AnalyticsService   *services.AnalyticsService

	// Domain
	Catalog    *catalog.Catalog
	Dispatcher *tracking.Dispatcher

	// Infrastructure Dependencies
	DB            *database.DB
	PageViews     *caching.PageViewRegistry
	LiveHub       *messaging.LiveHub
	CleanupWorker *cleanup.Worker
	CookieSecret  string

	// Observability
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
}

// NewLogger builds the channeled logger described by cfg.
func NewLogger(cfg *config.Config) (*logging.ChanneledLogger, error) {
	loggerConfig := logging.DefaultLoggerConfig()
	loggerConfig.DefaultLevel = cfg.SlogLevel()
	loggerConfig.JSONFormat = cfg.LogJSON
	loggerConfig.OutputToFile = cfg.LogToFile
	loggerConfig.LogDirectory = cfg.LogDir
	return logging.NewChanneledLogger(loggerConfig)
}

// NewContainer creates and wires all singleton services
func NewContainer(ctx context.Context, cfg *config.Config, logger *logging.ChanneledLogger) (*Container, error) {
	perfTracker := performance.NewTracker(&performance.TrackerConfig{
		Logger: logger.Perf(),
	})

	db, err := database.Open(ctx, database.Options{
		Path:         cfg.DBPath,
		TursoURL:     cfg.TursoURL,
		TursoToken:   cfg.TursoToken,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		ConnMaxLife:  cfg.DBConnMaxLife,
		ConnMaxIdle:  cfg.DBConnMaxIdle,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Repositories
	eventRepo := analyticsrepo.NewSQLEventRepository(db)
	entryRepo := attrrepo.NewSQLEntryRepository(db)
	orderRepo := orders.NewSQLOrderRepository(db)
	transcriptRepo := mediarepo.NewSQLTranscriptRepository(db)

	// Event sinks
	hub := messaging.NewLiveHub(logger)
	sinkList := []tracking.Sink{sinks.NewLiveSink(hub)}
	if cfg.StoreEvents {
		sinkList = append(sinkList, sinks.NewStoreSink(eventRepo))
	}
	if cfg.AnalyticsEnabled() {
		sinkList = append(sinkList, sinks.NewAnalyticsSink(sinks.AnalyticsConfig{
			MeasurementID: cfg.GA4MeasurementID,
			APISecret:     cfg.GA4APISecret,
			Endpoint:      cfg.GA4Endpoint,
		}))
	} else {
		logger.Startup().Warn("GA4 sink disabled, GA4_MEASUREMENT_ID or GA4_API_SECRET not set")
	}
	if cfg.PixelEnabled() {
		sinkList = append(sinkList, sinks.NewPixelSink(sinks.PixelConfig{
			PixelID:     cfg.MetaPixelID,
			AccessToken: cfg.MetaAccessToken,
			Endpoint:    cfg.MetaEndpoint,
		}))
	} else {
		logger.Startup().Warn("Meta sink disabled, META_PIXEL_ID or META_ACCESS_TOKEN not set")
	}
	dispatcher := tracking.NewDispatcher(logger.Tracking(), cfg.SinkTimeout, sinkList...)

	cookieSecret := cfg.CookieSecret
	if cookieSecret == "" {
		cookieSecret, err = security.GenerateSecureKey(64)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Startup().Warn("COOKIE_SECRET not set, attribution cookies will not survive a restart")
	}

	var mailer email.Service
	resend, err := email.NewService(cfg.ResendAPIKey, cfg.EmailFrom)
	switch {
	case errors.Is(err, email.ErrNotConfigured):
		logger.Startup().Warn("Order confirmation email disabled, RESEND_API_KEY not set")
	case err != nil:
		db.Close()
		return nil, err
	default:
		mailer = resend
	}

	var transcriber services.TranscriptRunner
	aai, err := media.NewAssemblyAITranscriber(cfg.AssemblyAIKey, transcriptRepo, logger)
	switch {
	case errors.Is(err, media.ErrTranscriptionDisabled):
		logger.Startup().Info("Transcription disabled, ASSEMBLYAI_API_KEY not set")
	case err != nil:
		db.Close()
		return nil, err
	default:
		transcriber = aai
	}

	cat := catalog.Default()
	pageViews := caching.NewPageViewRegistry(cfg.PageViewTTL)

	var forVisitor services.VisitorStorageFunc
	if cfg.AttributionStorage == config.StorageSQL {
		forVisitor = func(visitorID string) attribution.Storage {
			return entryRepo.ForVisitor(visitorID)
		}
	}

	trackingService := services.NewTrackingService(dispatcher, pageViews, cat, cfg.VideoID, cfg.VideoTitle, logger)

	return &Container{
		Config: cfg,

		AttributionService: services.NewAttributionService(cfg.AttributionStorage, cfg.AttributionTTL, forVisitor, logger),
		TrackingService:    trackingService,
		PageService: services.NewPageService(cat, trackingService, services.PageConfig{
			PublicURL:  cfg.PublicURL,
			VideoID:    cfg.VideoID,
			VideoTitle: cfg.VideoTitle,
			Pretty:     cfg.PrettyHTML,
		}, logger),
		CheckoutService:  services.NewCheckoutService(cat, orderRepo, mailer, cfg.PublicURL, logger),
		MediaService:     services.NewMediaService(media.NewImageProcessor(cfg.MediaDir, logger), transcriber, transcriptRepo, cfg.VideoID, cfg.VSLAudioURL, logger),
		AuthService:      services.NewAuthService(security.NewPasswordChecker(cfg.AdminPasswordHash, cfg.AdminPassword), cfg.JWTSecret, cfg.AdminTokenTTL, logger),
		AnalyticsService: services.NewAnalyticsService(eventRepo, orderRepo),

		Catalog:    cat,
		Dispatcher: dispatcher,

		DB:            db,
		PageViews:     pageViews,
		LiveHub:       hub,
		CleanupWorker: cleanup.NewWorker(pageViews, eventRepo, entryRepo, cleanup.NewConfig(cfg), logger),
		CookieSecret:  cookieSecret,

		Logger:      logger,
		PerfTracker: perfTracker,
	}, nil
}

// Close waits for in-flight deliveries and releases the database.
func (c *Container) Close() error {
	c.Dispatcher.Wait()
	c.CheckoutService.Wait()
	return c.DB.Close()
}
