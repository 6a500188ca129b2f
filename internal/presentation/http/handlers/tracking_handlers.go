package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/AtRiskMedia/vsl-go/internal/application/services"
	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/caching"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// TrackingHandlers receive page beacons and expose the visitor's
// attribution.
type TrackingHandlers struct {
	trackingService    *services.TrackingService
	attributionService *services.AttributionService
	logger             *logging.ChanneledLogger
	perfTracker        *performance.Tracker
}

// NewTrackingHandlers creates tracking handlers with injected dependencies
func NewTrackingHandlers(trackingService *services.TrackingService, attributionService *services.AttributionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *TrackingHandlers {
	return &TrackingHandlers{
		trackingService:    trackingService,
		attributionService: attributionService,
		logger:             logger,
		perfTracker:        perfTracker,
	}
}

// PostBeacon handles POST /api/v1/track/:kind
func (h *TrackingHandlers) PostBeacon(c *gin.Context) {
	visit, ok := requireVisit(c)
	if !ok {
		return
	}
	kind := c.Param("kind")
	marker := h.perfTracker.StartOperation("track:"+kind, visit.VisitorID)
	defer marker.Complete()

	var beacon services.Beacon
	if err := c.ShouldBindJSON(&beacon); err != nil && !errors.Is(err, io.EOF) {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid beacon body"})
		return
	}

	events, err := h.trackingService.HandleBeacon(visit, kind, beacon)
	switch {
	case errors.Is(err, caching.ErrPageViewNotFound):
		marker.SetError(err)
		h.logger.Tracking().Debug("Beacon for unknown page view", "kind", kind, "pageViewId", beacon.PageViewID, "visitorId", visit.VisitorID)
		c.JSON(http.StatusNotFound, gin.H{"error": "page view not found"})
		return
	case errors.Is(err, services.ErrUnknownBeacon), errors.Is(err, services.ErrInvalidBeacon):
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		marker.SetError(err)
		h.logger.LogError(logging.ChannelTracking, "handle_beacon", err, map[string]any{"kind": kind, "visitorId": visit.VisitorID})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to track beacon"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusAccepted, gin.H{"tracked": len(events)})
}

// AnnotateRequest asks for a link carrying the visitor's attribution.
type AnnotateRequest struct {
	URL       string            `json:"url" binding:"required"`
	Overrides map[string]string `json:"overrides"`
}

// PostAnnotateLink handles POST /api/v1/links/annotate
func (h *TrackingHandlers) PostAnnotateLink(c *gin.Context) {
	visit, ok := requireVisit(c)
	if !ok {
		return
	}

	var req AnnotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	overrides := make(attribution.Set, len(req.Overrides))
	for k, v := range req.Overrides {
		overrides[attribution.Key(k)] = v
	}
	c.JSON(http.StatusOK, gin.H{"url": h.attributionService.AnnotateLink(visit.Store, req.URL, overrides)})
}

// GetAttribution handles GET /api/v1/attribution
func (h *TrackingHandlers) GetAttribution(c *gin.Context) {
	visit, ok := requireVisit(c)
	if !ok {
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, h.attributionService.Snapshot(visit.Store))
}
