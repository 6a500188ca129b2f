package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/application/services"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/vsl-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// defaultSummaryWindow is used when the summary request names no window.
const defaultSummaryWindow = 24 * time.Hour

// AdminHandlers contains the admin login, event log and live feed handlers
type AdminHandlers struct {
	authService      *services.AuthService
	analyticsService *services.AnalyticsService
	trackingService  *services.TrackingService
	hub              *messaging.LiveHub
	secureCookies    bool
	upgrader         websocket.Upgrader
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewAdminHandlers creates admin handlers with injected dependencies
func NewAdminHandlers(authService *services.AuthService, analyticsService *services.AnalyticsService, trackingService *services.TrackingService, hub *messaging.LiveHub, secureCookies bool, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AdminHandlers {
	return &AdminHandlers{
		authService:      authService,
		analyticsService: analyticsService,
		trackingService:  trackingService,
		hub:              hub,
		secureCookies:    secureCookies,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOrigin,
		},
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// LoginRequest is the admin login body.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// PostLogin handles POST /api/v1/admin/login
func (h *AdminHandlers) PostLogin(c *gin.Context) {
	marker := h.perfTracker.StartOperation("admin:login", "admin")
	defer marker.Complete()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	result, err := h.authService.AuthenticateAdmin(req.Password)
	if errors.Is(err, services.ErrAdminDisabled) {
		marker.SetError(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, security.ErrInvalidPassword) {
		marker.SetError(err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		marker.SetError(err)
		h.logger.LogError(logging.ChannelAuth, "admin_login", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.AdminCookie,
		Value:    result.Token,
		Path:     "/api/v1/admin",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	marker.SetSuccess(true)
	c.JSON(http.StatusOK, result)
}

// GetEvents handles GET /api/v1/admin/events?limit=N&kind=K
func (h *AdminHandlers) GetEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	events, err := h.analyticsService.Recent(limit, c.Query("kind"))
	if err != nil {
		h.logger.LogError(logging.ChannelDatabase, "recent_events", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// GetSummary handles GET /api/v1/admin/summary?window=24h
func (h *AdminHandlers) GetSummary(c *gin.Context) {
	window := defaultSummaryWindow
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a positive duration such as 24h"})
			return
		}
		window = d
	}

	summary, err := h.analyticsService.Summary(window)
	if err != nil {
		h.logger.LogError(logging.ChannelDatabase, "funnel_summary", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetStatus handles GET /api/v1/admin/status
func (h *AdminHandlers) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sinks":           h.trackingService.Sinks(),
		"activePageViews": h.trackingService.ActivePageViews(),
		"liveClients":     h.hub.ClientCount(),
		"uptime":          h.perfTracker.Uptime().Round(time.Second).String(),
		"operations":      h.perfTracker.Stats(),
	})
}

// GetLive handles GET /api/v1/admin/live - upgrades to the live event feed
func (h *AdminHandlers) GetLive(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Live().Warn("Live feed upgrade failed", "error", err.Error(), "clientIp", c.ClientIP())
		return
	}
	h.logger.Live().Info("Live feed client connected", "clientIp", c.ClientIP())
	h.hub.Serve(conn)
	h.logger.Live().Info("Live feed client disconnected", "clientIp", c.ClientIP())
}

// sameOrigin accepts upgrades without an Origin header or from the serving
// host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}
