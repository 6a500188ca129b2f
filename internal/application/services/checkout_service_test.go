package services

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/AtRiskMedia/vsl-go/internal/domain/catalog"
	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/email"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.OrderConfirmation
	err  error
}

func (m *fakeMailer) SendOrderConfirmation(msg email.OrderConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func validRequest() CheckoutRequest {
	return CheckoutRequest{
		Name:      "  Maria   Silva ",
		Email:     "Maria@Example.com",
		Document:  "529.982.247-25",
		Phone:     "(11) 98765-4321",
		Postcode:  "01310-100",
		ProductID: "1",
	}
}

func newCheckout(t *testing.T, f *fixture, mailer email.Service) (*CheckoutService, *orders.SQLOrderRepository) {
	t.Helper()
	repo := orders.NewSQLOrderRepository(database.OpenTest(t))
	svc := NewCheckoutService(f.catalog, repo, mailer, "https://revitamax-pro.com/", f.logger).WithClock(f.clock.Now)
	return svc, repo
}

func TestValidCPF(t *testing.T) {
	tests := []struct {
		cpf  string
		want bool
	}{
		{"52998224725", true},
		{"11144477735", true},
		{"52998224724", false},
		{"11111111111", false},
		{"5299822472", false},
		{"529982247250", false},
		{"5299822472a", false},
	}
	for _, tt := range tests {
		t.Run(tt.cpf, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCPF(tt.cpf))
		})
	}
}

func TestCheckoutRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CheckoutRequest)
		field  string
	}{
		{"valid", func(*CheckoutRequest) {}, ""},
		{"short name", func(r *CheckoutRequest) { r.Name = "Al" }, "name"},
		{"bad email", func(r *CheckoutRequest) { r.Email = "maria.example.com" }, "email"},
		{"bad cpf", func(r *CheckoutRequest) { r.Document = "123.456.789-00" }, "document"},
		{"short phone", func(r *CheckoutRequest) { r.Phone = "9876-5432" }, "phone"},
		{"bad postcode", func(r *CheckoutRequest) { r.Postcode = "0131" }, "postcode"},
		{"postcode optional", func(r *CheckoutRequest) { r.Postcode = "" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Normalize().Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCheckoutRequest_Normalize(t *testing.T) {
	req := validRequest()
	req.ProductID = ""
	n := req.Normalize()

	assert.Equal(t, "Maria Silva", n.Name)
	assert.Equal(t, "maria@example.com", n.Email)
	assert.Equal(t, "52998224725", n.Document)
	assert.Equal(t, "11987654321", n.Phone)
	assert.Equal(t, "01310100", n.Postcode)
	assert.Equal(t, catalog.DefaultProductID, n.ProductID)
}

func TestCheckoutService_PlaceOrder(t *testing.T) {
	f := newFixture(t)
	mailer := &fakeMailer{}
	svc, repo := newCheckout(t, f, mailer)
	v := f.visit(t, "visitor-1", "utm_source=ig&utm_campaign=sale")

	result, err := svc.PlaceOrder(context.Background(), v, validRequest())
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, "VSL-1748779200000", result.OrderID)
	assert.Equal(t, "1", result.ProductID)
	assert.Equal(t, "197.00", result.Amount)

	redirect, err := url.Parse(result.Redirect)
	require.NoError(t, err)
	assert.Equal(t, ThankYouPath, redirect.Path)
	assert.Equal(t, result.OrderID, redirect.Query().Get("order"))
	assert.Equal(t, "1", redirect.Query().Get("product"))
	assert.Equal(t, "ig", redirect.Query().Get("utm_source"))
	assert.Equal(t, "sale", redirect.Query().Get("utm_campaign"))

	stored, err := repo.FindByID(result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", stored.CustomerName)
	assert.Equal(t, "visitor-1", stored.VisitorID)
	assert.Equal(t, "ig", string(stored.Attribution["utm_source"]))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "maria@example.com", msg.To)
	assert.Equal(t, "Maria", msg.Name)
	assert.Equal(t, "https://revitamax-pro.com/obrigado?order="+result.OrderID+"&product=1", msg.AccessURL)
}

func TestCheckoutService_PlaceOrderRejects(t *testing.T) {
	f := newFixture(t)
	svc, _ := newCheckout(t, f, nil)
	v := f.visit(t, "visitor-1", "")

	t.Run("unknown product", func(t *testing.T) {
		req := validRequest()
		req.ProductID = "42"
		_, err := svc.PlaceOrder(context.Background(), v, req)
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	})

	t.Run("invalid form", func(t *testing.T) {
		req := validRequest()
		req.Email = "nope"
		_, err := svc.PlaceOrder(context.Background(), v, req)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "email", verr.Field)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.PlaceOrder(ctx, v, validRequest())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCheckoutService_OrderIDsAreMonotonic(t *testing.T) {
	f := newFixture(t)
	svc, _ := newCheckout(t, f, nil)
	v := f.visit(t, "visitor-1", "")

	first, err := svc.PlaceOrder(context.Background(), v, validRequest())
	require.NoError(t, err)
	second, err := svc.PlaceOrder(context.Background(), v, validRequest())
	require.NoError(t, err)

	assert.Equal(t, "VSL-1748779200000", first.OrderID)
	assert.Equal(t, "VSL-1748779200001", second.OrderID)
}

func TestCheckoutService_MailerFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture(t)
	svc, _ := newCheckout(t, f, &fakeMailer{err: errors.New("smtp down")})
	v := f.visit(t, "visitor-1", "")

	result, err := svc.PlaceOrder(context.Background(), v, validRequest())
	require.NoError(t, err)
	svc.Wait()
	assert.NotEmpty(t, result.OrderID)
}

func TestCheckoutService_ConfirmPurchase(t *testing.T) {
	f := newFixture(t)
	svc, _ := newCheckout(t, f, nil)
	v := f.visit(t, "visitor-1", "utm_source=google&gclid=g-1")

	result, err := svc.PlaceOrder(context.Background(), v, validRequest())
	require.NoError(t, err)

	order, err := svc.FindOrder(result.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order)

	tracked, err := svc.ConfirmPurchase(v, order)
	require.NoError(t, err)
	assert.True(t, tracked)

	tracked, err = svc.ConfirmPurchase(v, order)
	require.NoError(t, err)
	assert.False(t, tracked, "a reload does not track the purchase again")

	f.dispatcher.Wait()
	purchases := f.sink.ofKind(tracking.KindPurchase)
	require.Len(t, purchases, 1)
	assert.Equal(t, result.OrderID, purchases[0].Payload[tracking.FieldTransactionID])
	assert.Equal(t, 197.0, purchases[0].Payload[tracking.FieldValue])
	assert.Equal(t, "g-1", purchases[0].Payload["gclid"])

	t.Run("unknown order", func(t *testing.T) {
		order, err := svc.FindOrder("VSL-0")
		assert.NoError(t, err)
		assert.Nil(t, order)
	})
}
