package email

import (
	"errors"
	"testing"

	"github.com/resendlabs/resend-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendOrderConfirmation(t *testing.T) {
	var sent []*resend.SendEmailRequest
	svc := NewServiceWithSender(func(params *resend.SendEmailRequest) error {
		sent = append(sent, params)
		return nil
	}, "")

	err := svc.SendOrderConfirmation(OrderConfirmation{
		To:          "maria@example.com",
		Name:        "Maria <script>",
		OrderID:     "VSL-1700000000000",
		ProductName: "RevitaMax Pro - Fórmula Completa",
		PriceLabel:  "R$ 197,00",
		Installment: "12x de R$ 16,42",
		AccessURL:   "https://revitamax-pro.com/obrigado?order=VSL-1700000000000",
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)

	msg := sent[0]
	assert.Equal(t, "RevitaMax <pedidos@revitamax-pro.com>", msg.From)
	assert.Equal(t, []string{"maria@example.com"}, msg.To)
	assert.Equal(t, "Pedido VSL-1700000000000 confirmado - RevitaMax", msg.Subject)
	assert.Contains(t, msg.Html, "R$ 197,00")
	assert.Contains(t, msg.Html, "12x de R$ 16,42")
	assert.Contains(t, msg.Html, "Maria &lt;script&gt;")
	assert.NotContains(t, msg.Html, "<script>")
	assert.Contains(t, msg.Html, "60 dias")
}

func TestSendOrderConfirmation_Errors(t *testing.T) {
	t.Run("no recipient", func(t *testing.T) {
		svc := NewServiceWithSender(func(*resend.SendEmailRequest) error { return nil }, "x@y")
		assert.Error(t, svc.SendOrderConfirmation(OrderConfirmation{OrderID: "1"}))
	})

	t.Run("delivery failure is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		svc := NewServiceWithSender(func(*resend.SendEmailRequest) error { return boom }, "x@y")
		err := svc.SendOrderConfirmation(OrderConfirmation{To: "a@b", OrderID: "1"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no api key", func(t *testing.T) {
		_, err := NewService("", "")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestComposeOrderConfirmation_OmitsEmptySections(t *testing.T) {
	html := ComposeOrderConfirmation(OrderConfirmation{OrderID: "VSL-1", PriceLabel: "R$ 97,00"})

	assert.Contains(t, html, "Parabéns, cliente!")
	assert.NotContains(t, html, "Parcelamento")
	assert.NotContains(t, html, "Acompanhar meu pedido")
}
