// Package email sends transactional emails through Resend.
package email

import (
	"errors"
	"fmt"

	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/email/templates"
	"github.com/resendlabs/resend-go"
)

// ErrNotConfigured is returned when no Resend API key is set.
var ErrNotConfigured = errors.New("email delivery not configured")

// OrderConfirmation is what the checkout knows when it sends the email.
type OrderConfirmation struct {
	To          string
	Name        string
	OrderID     string
	ProductName string
	PriceLabel  string
	Installment string
	AccessURL   string
}

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendOrderConfirmation(msg OrderConfirmation) error
}

// SendFunc delivers one composed message.
type SendFunc func(params *resend.SendEmailRequest) error

// ResendClient is the Resend implementation of Service.
type ResendClient struct {
	send SendFunc
	from string
}

// NewService creates a Resend-backed service. An empty key yields
// ErrNotConfigured so callers can run without email.
func NewService(apiKey, from string) (*ResendClient, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client := resend.NewClient(apiKey)
	return NewServiceWithSender(func(params *resend.SendEmailRequest) error {
		_, err := client.Emails.Send(params)
		return err
	}, from), nil
}

// NewServiceWithSender wires a custom delivery function.
func NewServiceWithSender(send SendFunc, from string) *ResendClient {
	if from == "" {
		from = "RevitaMax <pedidos@revitamax-pro.com>"
	}
	return &ResendClient{send: send, from: from}
}

// SendOrderConfirmation composes and sends the order confirmation email.
func (c *ResendClient) SendOrderConfirmation(msg OrderConfirmation) error {
	if msg.To == "" {
		return errors.New("order confirmation requires a recipient")
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{msg.To},
		Subject: fmt.Sprintf("Pedido %s confirmado - RevitaMax", msg.OrderID),
		Html:    ComposeOrderConfirmation(msg),
	}

	if err := c.send(params); err != nil {
		return fmt.Errorf("failed to send order confirmation via Resend: %w", err)
	}
	return nil
}

// ComposeOrderConfirmation renders the full HTML document for msg.
func ComposeOrderConfirmation(msg OrderConfirmation) string {
	content := templates.GetOrderConfirmationContent(templates.OrderConfirmationProps{
		Name:        msg.Name,
		OrderID:     msg.OrderID,
		ProductName: msg.ProductName,
		PriceLabel:  msg.PriceLabel,
		Installment: msg.Installment,
		AccessURL:   msg.AccessURL,
	})
	return templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: "Pedido " + msg.OrderID + " confirmado",
		Content:   content,
	})
}
