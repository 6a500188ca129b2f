package services

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/domain/catalog"
	"github.com/AtRiskMedia/vsl-go/internal/domain/seo"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/htmlhead"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/orders"
	"github.com/AtRiskMedia/vsl-go/internal/presentation/templates"
)

// Offer copy used in the landing page structured data.
const (
	offerName        = "RevitaMax Pro - Fórmula Avançada"
	offerDescription = "Produto revolucionário com fórmula patenteada para energia, vitalidade e saúde completa em 21 dias"
)

// PageConfig holds the page settings that come from configuration.
type PageConfig struct {
	PublicURL  string
	VideoID    string
	VideoTitle string
	Pretty     bool
}

// RenderedPage is a finished HTML document and the hints to announce in the
// Link header.
type RenderedPage struct {
	HTML       []byte
	LinkHeader string
	PageViewID string
}

// PageService renders the funnel pages and starts their page views.
type PageService struct {
	catalog  *catalog.Catalog
	tracking *TrackingService
	cfg      PageConfig
	logger   *logging.ChanneledLogger
	now      func() time.Time
}

// NewPageService creates the service.
func NewPageService(cat *catalog.Catalog, tracking *TrackingService, cfg PageConfig, logger *logging.ChanneledLogger) *PageService {
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &PageService{
		catalog:  cat,
		tracking: tracking,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the clock used for structured data validity.
func (s *PageService) WithClock(now func() time.Time) *PageService {
	s.now = now
	return s
}

// Landing renders the VSL page. Every checkout link carries the visitor's
// attribution plus the CTA that produced it.
func (s *PageService) Landing(visit *Visit) (*RenderedPage, error) {
	pv := s.tracking.StartPage(visit, "/", "VSL_Home", map[string]any{
		"page_type":   "landing_page",
		"funnel_step": "awareness",
	})

	annotator := attribution.NewAnnotator(visit.Store)
	products := s.catalog.Products()
	cards := make([]templates.ProductCard, 0, len(products))
	for _, p := range products {
		link := annotator.Annotate(checkoutPath(p.ID), attribution.Set{
			attribution.KeyContent: "product_" + p.ID + "_cta",
		})
		cards = append(cards, templates.NewProductCard(p, link))
	}

	featured := s.catalog.Resolve(catalog.DefaultProductID)
	finalCTA := annotator.Annotate(checkoutPath(featured.ID), attribution.Set{
		attribution.KeyContent: "final_cta",
	})
	body := templates.RenderLanding(templates.LandingData{
		VideoID:     s.cfg.VideoID,
		VideoTitle:  s.cfg.VideoTitle,
		Products:    cards,
		FinalCTAURL: finalCTA,
	})

	schema, err := seo.NewProductSchema(seo.OfferInput{
		Name:        offerName,
		Description: offerDescription,
		Price:       featured.Price.String(),
		Currency:    featured.CurrencyCode(),
	}, s.now()).JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode structured data: %w", err)
	}

	return s.finish(templates.PageLanding, pv.ID, body, htmlhead.Head{
		Meta:   seo.Merge(seo.DefaultMeta(), seo.MetaConfig{Canonical: s.canonical("/")}),
		Hints:  seo.LandingHints(s.cfg.VideoID),
		JSONLD: schema,
	})
}

// Checkout renders the checkout page for productID. Unknown ids show the
// default product.
func (s *PageService) Checkout(visit *Visit, productID string) (*RenderedPage, error) {
	product := s.catalog.Resolve(productID)
	pv := s.tracking.StartPage(visit, "/checkout", "Checkout", map[string]any{
		"page_type":   "checkout_page",
		"funnel_step": "checkout",
		"product_id":  product.ID,
	})

	body := templates.RenderCheckout(templates.CheckoutData{
		Product: templates.NewProductCard(product, ""),
	})
	return s.finish(templates.PageCheckout, pv.ID, body, htmlhead.Head{
		Meta:  seo.Merge(seo.CheckoutMeta(), seo.MetaConfig{Canonical: s.canonical("/checkout")}),
		Hints: seo.CommonHints(),
	})
}

// ThankYou renders the confirmation page. order is nil when the id in the
// link does not match a stored order.
func (s *PageService) ThankYou(visit *Visit, orderID, productID string, order *orders.Order) (*RenderedPage, error) {
	data := templates.ThankYouData{OrderID: orderID}
	if order != nil {
		productID = order.ProductID
		data.OrderID = order.ID
		data.CustomerName = firstName(order.CustomerName)
		data.Email = order.CustomerEmail
	}
	product := s.catalog.Resolve(productID)
	data.ProductName = product.Name
	data.PriceLabel = product.PriceLabel()

	resolved := visit.Attribution()
	for _, k := range resolved.OrderedKeys() {
		data.Attribution = append(data.Attribution, templates.AttributionRow{Key: string(k), Value: resolved[k]})
	}

	pv := s.tracking.StartPage(visit, "/obrigado", "Thank_You", map[string]any{
		"page_type":   "conversion_page",
		"funnel_step": "conversion",
		"order_id":    data.OrderID,
		"product_id":  product.ID,
	})

	return s.finish(templates.PageThankYou, pv.ID, templates.RenderThankYou(data), htmlhead.Head{
		Meta:  seo.Merge(seo.ThankYouMeta(), seo.MetaConfig{Canonical: s.canonical("/obrigado")}),
		Hints: seo.CommonHints(),
	})
}

func (s *PageService) finish(page, pageViewID, body string, head htmlhead.Head) (*RenderedPage, error) {
	doc := templates.RenderLayout(templates.LayoutData{
		Lang:       head.Meta.Language,
		Title:      head.Meta.Title,
		Page:       page,
		PageViewID: pageViewID,
		Body:       template.HTML(body),
	})

	out, err := htmlhead.Inject([]byte(doc), head)
	if err != nil {
		s.logger.LogError(logging.ChannelHTTP, "inject_head", err, map[string]any{"page": page})
		return nil, err
	}
	if s.cfg.Pretty {
		out = htmlhead.Pretty(out)
	}
	return &RenderedPage{
		HTML:       out,
		LinkHeader: seo.LinkHeader(head.Hints),
		PageViewID: pageViewID,
	}, nil
}

func (s *PageService) canonical(path string) string {
	if s.cfg.PublicURL == "" {
		return ""
	}
	if path == "/" {
		return s.cfg.PublicURL
	}
	return s.cfg.PublicURL + path
}

func checkoutPath(productID string) string {
	return "/checkout?product=" + productID
}
