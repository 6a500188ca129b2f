// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/application/services"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/vsl-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// PageHandlers serves the three funnel pages.
type PageHandlers struct {
	pageService     *services.PageService
	checkoutService *services.CheckoutService
	trackingService *services.TrackingService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewPageHandlers creates page handlers with injected dependencies
func NewPageHandlers(pageService *services.PageService, checkoutService *services.CheckoutService, trackingService *services.TrackingService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *PageHandlers {
	return &PageHandlers{
		pageService:     pageService,
		checkoutService: checkoutService,
		trackingService: trackingService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// GetLanding handles GET / - the video sales letter page
func (h *PageHandlers) GetLanding(c *gin.Context) {
	visit, ok := requireVisit(c)
	if !ok {
		return
	}
	marker := h.perfTracker.StartOperation("get_landing_page", visit.VisitorID)
	defer marker.Complete()

	page, err := h.pageService.Landing(visit)
	if err != nil {
		h.fail(c, visit, marker, "landing", err)
		return
	}
	marker.SetSuccess(true)
	writePage(c, page)
}

// GetCheckout handles GET /checkout?product=ID
func (h *PageHandlers) GetCheckout(c *gin.Context) {
	visit, ok := requireVisit(c)
	if !ok {
		return
	}
	marker := h.perfTracker.StartOperation("get_checkout_page", visit.VisitorID)
	defer marker.Complete()

	page, err := h.pageService.Checkout(visit, c.Query("product"))
	if err != nil {
		h.fail(c, visit, marker, "checkout", err)
		return
	}
	marker.SetSuccess(true)
	writePage(c, page)
}

// GetThankYou handles GET /obrigado?order=ID&product=ID. The purchase is
// tracked the first time a stored order's page is served.
func (h *PageHandlers) GetThankYou(c *gin.Context) {
	visit, ok := requireVisit(c)
	if !ok {
		return
	}
	start := time.Now()
	marker := h.perfTracker.StartOperation("get_thank_you_page", visit.VisitorID)
	defer marker.Complete()

	orderID := c.Query("order")
	order, err := h.checkoutService.FindOrder(orderID)
	if err != nil {
		h.logger.LogError(logging.ChannelCheckout, "find_order", err, map[string]any{"orderId": orderID})
	}
	if order != nil {
		if _, err := h.checkoutService.ConfirmPurchase(visit, order); err != nil {
			h.logger.LogError(logging.ChannelCheckout, "confirm_purchase", err, map[string]any{"orderId": order.ID})
		}
	} else if orderID != "" {
		h.logger.Checkout().Warn("Thank-you page for unknown order", "orderId", orderID, "visitorId", visit.VisitorID)
	}

	page, err := h.pageService.ThankYou(visit, orderID, c.Query("product"), order)
	if err != nil {
		h.fail(c, visit, marker, "thank_you", err)
		return
	}
	marker.SetSuccess(true)
	h.logger.Perf().Debug("Performance for GetThankYou request", "duration", time.Since(start), "visitorId", visit.VisitorID, "knownOrder", order != nil)
	writePage(c, page)
}

func (h *PageHandlers) fail(c *gin.Context, visit *services.Visit, marker *performance.Marker, page string, err error) {
	marker.SetError(err)
	h.logger.LogError(logging.ChannelHTTP, "render_"+page, err, map[string]any{"visitorId": visit.VisitorID})
	h.trackingService.TrackServerError(visit, err, c.Request.URL.Path)
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte("<!doctype html><title>Erro</title><p>Página indisponível no momento.</p>"))
}

func writePage(c *gin.Context, page *services.RenderedPage) {
	if page.LinkHeader != "" {
		c.Header("Link", page.LinkHeader)
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.HTML)
}

// requireVisit loads the request's visit or answers 500.
func requireVisit(c *gin.Context) (*services.Visit, bool) {
	visit, ok := middleware.GetVisit(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visit context not found"})
		return nil, false
	}
	return visit, true
}
