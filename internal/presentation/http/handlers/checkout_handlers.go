package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/application/services"
	"github.com/AtRiskMedia/vsl-go/internal/domain/catalog"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CheckoutHandlers place orders and list the offer.
type CheckoutHandlers struct {
	checkoutService *services.CheckoutService
	trackingService *services.TrackingService
	catalog         *catalog.Catalog
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewCheckoutHandlers creates checkout handlers with injected dependencies
func NewCheckoutHandlers(checkoutService *services.CheckoutService, trackingService *services.TrackingService, cat *catalog.Catalog, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *CheckoutHandlers {
	return &CheckoutHandlers{
		checkoutService: checkoutService,
		trackingService: trackingService,
		catalog:         cat,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// PostCheckout handles POST /api/v1/checkout
func (h *CheckoutHandlers) PostCheckout(c *gin.Context) {
	visit, ok := requireVisit(c)
	if !ok {
		return
	}
	start := time.Now()
	marker := h.perfTracker.StartOperation("checkout:submit", visit.VisitorID)
	defer marker.Complete()

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "campo obrigatório", "field": strings.ToLower(verrs[0].Field())})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "formulário inválido"})
		return
	}

	result, err := h.checkoutService.PlaceOrder(c.Request.Context(), visit, req)
	if err != nil {
		marker.SetError(err)
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
		case errors.Is(err, catalog.ErrProductNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "produto inválido", "field": "productId"})
		default:
			h.logger.LogError(logging.ChannelCheckout, "place_order", err, map[string]any{"visitorId": visit.VisitorID})
			h.trackingService.TrackServerError(visit, err, c.Request.URL.Path)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Não foi possível finalizar o pedido"})
		}
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostCheckout request", "duration", time.Since(start), "visitorId", visit.VisitorID, "orderId", result.OrderID)
	c.JSON(http.StatusCreated, result)
}

// ProductResponse is a catalog entry as the API reports it.
type ProductResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Price           string   `json:"price"`
	OriginalPrice   string   `json:"originalPrice"`
	PriceLabel      string   `json:"priceLabel"`
	Installment     string   `json:"installment"`
	DiscountPercent int      `json:"discountPercent"`
	Currency        string   `json:"currency"`
	Features        []string `json:"features"`
	Badges          []string `json:"badges,omitempty"`
	Highlight       bool     `json:"highlight"`
}

// GetProducts handles GET /api/v1/products
func (h *CheckoutHandlers) GetProducts(c *gin.Context) {
	products := h.catalog.Products()
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductResponse{
			ID:              p.ID,
			Name:            p.Name,
			Price:           p.Price.String(),
			OriginalPrice:   p.OriginalPrice.String(),
			PriceLabel:      p.PriceLabel(),
			Installment:     p.InstallmentLabel(),
			DiscountPercent: p.DiscountPercent(),
			Currency:        p.CurrencyCode(),
			Features:        p.Features,
			Badges:          p.Badges,
			Highlight:       p.Highlight,
		})
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}
