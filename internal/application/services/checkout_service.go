package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/domain/catalog"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/email"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/orders"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ThankYouPath is where a completed checkout lands.
const ThankYouPath = "/obrigado"

// CheckoutRequest is the checkout form.
type CheckoutRequest struct {
	Name      string `json:"name" form:"name" binding:"required,max=120"`
	Email     string `json:"email" form:"email" binding:"required,max=254"`
	Document  string `json:"document" form:"document" binding:"required"`
	Phone     string `json:"phone" form:"phone" binding:"required"`
	Postcode  string `json:"postcode" form:"postcode"`
	ProductID string `json:"productId" form:"productId"`
}

// ValidationError names the form field that was rejected.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Normalize trims the request and strips punctuation from numeric fields.
func (r CheckoutRequest) Normalize() CheckoutRequest {
	r.Name = strings.Join(strings.Fields(r.Name), " ")
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Document = digits(r.Document)
	r.Phone = digits(r.Phone)
	r.Postcode = digits(r.Postcode)
	r.ProductID = strings.TrimSpace(r.ProductID)
	if r.ProductID == "" {
		r.ProductID = catalog.DefaultProductID
	}
	return r
}

// Validate checks a normalized request.
func (r CheckoutRequest) Validate() error {
	if len([]rune(r.Name)) < 3 {
		return &ValidationError{Field: "name", Message: "informe seu nome completo"}
	}
	if _, err := mail.ParseAddress(r.Email); err != nil || !strings.Contains(r.Email, "@") {
		return &ValidationError{Field: "email", Message: "e-mail inválido"}
	}
	if !ValidCPF(r.Document) {
		return &ValidationError{Field: "document", Message: "CPF inválido"}
	}
	if n := len(r.Phone); n < 10 || n > 11 {
		return &ValidationError{Field: "phone", Message: "telefone deve ter DDD e 8 ou 9 dígitos"}
	}
	if r.Postcode != "" && len(r.Postcode) != 8 {
		return &ValidationError{Field: "postcode", Message: "CEP deve ter 8 dígitos"}
	}
	return nil
}

// ValidCPF checks the length and both check digits of a Brazilian
// taxpayer number given as 11 digits.
func ValidCPF(cpf string) bool {
	if len(cpf) != 11 || digits(cpf) != cpf {
		return false
	}
	if strings.Count(cpf, cpf[:1]) == 11 {
		return false
	}
	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(cpf[i]-'0') * (n + 1 - i)
		}
		check := sum * 10 % 11
		if check == 10 {
			check = 0
		}
		if check != int(cpf[n]-'0') {
			return false
		}
	}
	return true
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// OrderStore persists orders.
type OrderStore interface {
	Create(order *orders.Order) error
	FindByID(id string) (*orders.Order, error)
	MarkPurchaseTracked(id string) (bool, error)
}

// CheckoutResult is returned to the page script after a successful order.
type CheckoutResult struct {
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Amount    string `json:"amount"`
	Redirect  string `json:"redirect"`
}

// CheckoutService records simulated orders. Payment always succeeds.
type CheckoutService struct {
	catalog   *catalog.Catalog
	orders    OrderStore
	mailer    email.Service
	publicURL string
	logger    *logging.ChanneledLogger
	now       func() time.Time

	mu        sync.Mutex
	lastOrder int64
	wg        sync.WaitGroup
}

// NewCheckoutService creates the service. mailer may be nil.
func NewCheckoutService(cat *catalog.Catalog, store OrderStore, mailer email.Service, publicURL string, logger *logging.ChanneledLogger) *CheckoutService {
	return &CheckoutService{
		catalog:   cat,
		orders:    store,
		mailer:    mailer,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the clock order ids are derived from.
func (s *CheckoutService) WithClock(now func() time.Time) *CheckoutService {
	s.now = now
	return s
}

// nextOrderID returns VSL-<epoch ms>, bumped past the previous id when two
// orders land in the same millisecond.
func (s *CheckoutService) nextOrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.now().UnixMilli()
	if ms <= s.lastOrder {
		ms = s.lastOrder + 1
	}
	s.lastOrder = ms
	return "VSL-" + strconv.FormatInt(ms, 10)
}

// PlaceOrder validates the form, stores the order with the visitor's
// attribution and returns the annotated thank-you redirect.
func (s *CheckoutService) PlaceOrder(ctx context.Context, visit *Visit, req CheckoutRequest) (*CheckoutResult, error) {
	ctx, span := otel.Tracer("vsl-go/checkout").Start(ctx, "checkout.place_order")
	defer span.End()

	req = req.Normalize()
	product, err := s.catalog.Lookup(req.ProductID)
	if err != nil {
		span.SetStatus(codes.Error, "unknown product")
		return nil, err
	}
	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid form")
		return nil, err
	}

	order := &orders.Order{
		ID:               s.nextOrderID(),
		ProductID:        product.ID,
		ProductName:      product.Name,
		Amount:           product.Price.String(),
		Currency:         product.CurrencyCode(),
		CustomerName:     req.Name,
		CustomerEmail:    req.Email,
		CustomerDocument: req.Document,
		CustomerPhone:    req.Phone,
		CustomerPostcode: req.Postcode,
		VisitorID:        visit.VisitorID,
		Attribution:      visit.Attribution(),
		CreatedAt:        s.now().UnixMilli(),
	}
	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("product.id", product.ID),
		attribute.Int("attribution.keys", len(order.Attribution)),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.orders.Create(order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store order")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.logger.Checkout().Info("Order placed",
		"orderId", order.ID,
		"productId", product.ID,
		"amount", order.Amount,
		"visitorId", visit.VisitorID,
		"source", order.Attribution.Get(attribution.KeySource, "direct"))

	s.sendConfirmation(order, product)

	q := url.Values{}
	q.Set("order", order.ID)
	q.Set("product", product.ID)
	redirect := ThankYouPath + "?" + q.Encode()
	if visit.Store != nil {
		redirect = attribution.NewAnnotator(visit.Store).Annotate(redirect, nil)
	}

	return &CheckoutResult{
		OrderID:   order.ID,
		ProductID: product.ID,
		Amount:    order.Amount,
		Redirect:  redirect,
	}, nil
}

func (s *CheckoutService) sendConfirmation(order *orders.Order, product catalog.Product) {
	if s.mailer == nil {
		return
	}
	msg := email.OrderConfirmation{
		To:          order.CustomerEmail,
		Name:        firstName(order.CustomerName),
		OrderID:     order.ID,
		ProductName: product.Name,
		PriceLabel:  product.PriceLabel(),
		Installment: product.InstallmentLabel(),
	}
	if s.publicURL != "" {
		msg.AccessURL = s.publicURL + ThankYouPath + "?order=" + url.QueryEscape(order.ID) + "&product=" + url.QueryEscape(product.ID)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.mailer.SendOrderConfirmation(msg); err != nil {
			if errors.Is(err, email.ErrNotConfigured) {
				return
			}
			s.logger.LogError(logging.ChannelCheckout, "send_confirmation", err, map[string]any{"orderId": order.ID})
			return
		}
		s.logger.Checkout().Info("Order confirmation sent", "orderId", order.ID)
	}()
}

func firstName(full string) string {
	if f := strings.Fields(full); len(f) > 0 {
		return f[0]
	}
	return ""
}

// Wait blocks until pending confirmation emails finished.
func (s *CheckoutService) Wait() {
	s.wg.Wait()
}

// FindOrder loads an order. A missing order is reported as nil without an
// error.
func (s *CheckoutService) FindOrder(id string) (*orders.Order, error) {
	if id == "" {
		return nil, nil
	}
	order, err := s.orders.FindByID(id)
	if errors.Is(err, orders.ErrOrderNotFound) {
		return nil, nil
	}
	return order, err
}

// ConfirmPurchase tracks the purchase of order the first time it is called
// for that order. It reports whether this call tracked it.
func (s *CheckoutService) ConfirmPurchase(visit *Visit, order *orders.Order) (bool, error) {
	first, err := s.orders.MarkPurchaseTracked(order.ID)
	if err != nil {
		return false, err
	}
	if !first {
		s.logger.Checkout().Debug("Purchase already tracked", "orderId", order.ID)
		return false, nil
	}

	value, err := strconv.ParseFloat(order.Amount, 64)
	if err != nil {
		s.logger.Checkout().Warn("Order amount unreadable", "orderId", order.ID, "amount", order.Amount)
	}
	visit.Tracker.TrackPurchase(order.ID, order.ProductID, order.ProductName, value, order.Currency)
	s.logger.Checkout().Info("Purchase tracked", "orderId", order.ID, "visitorId", visit.VisitorID)
	return true, nil
}
