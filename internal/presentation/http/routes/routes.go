// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"

	"github.com/AtRiskMedia/vsl-go/internal/application/container"
	"github.com/AtRiskMedia/vsl-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/vsl-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/vsl-go/internal/presentation/templates"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(container.Logger, container.PerfTracker))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	if cfg.Brotli {
		r.Use(middleware.BrotliMiddleware())
	}
	r.Use(middleware.VisitorMiddleware(cfg.SecureCookies, container.Logger))

	r.StaticFS("/static", http.FS(templates.Static()))
	r.Static("/media", cfg.MediaDir)

	// Initialize handlers
	healthHandlers := handlers.NewHealthHandlers(container.DB)
	pageHandlers := handlers.NewPageHandlers(container.PageService, container.CheckoutService, container.TrackingService, container.Logger, container.PerfTracker)
	trackingHandlers := handlers.NewTrackingHandlers(container.TrackingService, container.AttributionService, container.Logger, container.PerfTracker)
	checkoutHandlers := handlers.NewCheckoutHandlers(container.CheckoutService, container.TrackingService, container.Catalog, container.Logger, container.PerfTracker)
	mediaHandlers := handlers.NewMediaHandlers(container.MediaService, cfg.MaxUploadMB, container.Logger, container.PerfTracker)
	adminHandlers := handlers.NewAdminHandlers(container.AuthService, container.AnalyticsService, container.TrackingService, container.LiveHub, cfg.SecureCookies, container.Logger, container.PerfTracker)

	r.GET("/healthz", healthHandlers.GetHealth)

	visit := middleware.VisitMiddleware(container.AttributionService, container.TrackingService, middleware.CookieOptions{
		Secret: container.CookieSecret,
		TTL:    cfg.AttributionTTL,
		Secure: cfg.SecureCookies,
	})

	// Funnel pages
	pages := r.Group("/", visit)
	{
		pages.GET("/", pageHandlers.GetLanding)
		pages.GET("/checkout", pageHandlers.GetCheckout)
		pages.GET("/obrigado", pageHandlers.GetThankYou)
	}

	// Visitor API
	api := r.Group("/api/v1", visit)
	{
		api.POST("/track/:kind", trackingHandlers.PostBeacon)
		api.POST("/links/annotate", trackingHandlers.PostAnnotateLink)
		api.GET("/attribution", trackingHandlers.GetAttribution)
		api.POST("/checkout", checkoutHandlers.PostCheckout)
		api.GET("/products", checkoutHandlers.GetProducts)
		api.GET("/video/transcript", mediaHandlers.GetTranscript)
	}

	// Admin API
	r.POST("/api/v1/admin/login", adminHandlers.PostLogin)
	admin := r.Group("/api/v1/admin", middleware.AdminAuthMiddleware(container.AuthService, container.Logger))
	{
		admin.GET("/events", adminHandlers.GetEvents)
		admin.GET("/summary", adminHandlers.GetSummary)
		admin.GET("/status", adminHandlers.GetStatus)
		admin.GET("/live", adminHandlers.GetLive)
		admin.POST("/video/transcribe", mediaHandlers.PostTranscribe)
		admin.POST("/media/hero", mediaHandlers.PostHeroImage)
	}

	return r
}
