package templates

import "html/template"

var checkoutTmpl = template.Must(template.New("checkout").Parse(
	`<main class="checkout">` +
		`<header class="checkout-header">` +
		`<h1>Finalize Sua Compra Segura</h1>` +
		`<p>🔒 Ambiente 100% Seguro - SSL Criptografado</p>` +
		`</header>` +
		`<div class="checkout-grid">` +
		`<form class="checkout-form" method="post" action="{{.Action}}" data-checkout-form novalidate>` +
		`<h2>Dados de Cobrança</h2>` +
		`<input type="hidden" name="productId" value="{{.Product.ID}}">` +
		`<label>Nome Completo<input type="text" name="name" placeholder="Seu nome completo" autocomplete="name" required></label>` +
		`<label>E-mail<input type="email" name="email" placeholder="seu@email.com" autocomplete="email" required></label>` +
		`<label>CPF<input type="text" name="document" placeholder="000.000.000-00" inputmode="numeric" required></label>` +
		`<label>Telefone<input type="tel" name="phone" placeholder="(00) 00000-0000" autocomplete="tel" required></label>` +
		`<label>CEP<input type="text" name="postcode" placeholder="00000-000" inputmode="numeric" autocomplete="postal-code"></label>` +
		`<p class="form-error" data-form-error hidden></p>` +
		`<button type="submit" class="cta">FINALIZAR COMPRA</button>` +
		`</form>` +
		`<aside class="order-summary">` +
		`<h2>Resumo do Pedido</h2>` +
		`<h3>{{.Product.Name}}</h3>` +
		`<p class="price"><s>{{.Product.OriginalPrice}}</s> <strong>{{.Product.Price}}</strong>{{if .Product.Discount}} <span>-{{.Product.Discount}}%</span>{{end}}</p>` +
		`<p class="price-installment">ou {{.Product.Installment}} no cartão</p>` +
		`<ul class="features">{{range .Product.Features}}<li>{{.}}</li>{{end}}</ul>` +
		`<p class="guarantee">Garantia de 60 dias ou seu dinheiro de volta</p>` +
		`</aside>` +
		`</div>` +
		`</main>`,
))

// CheckoutData is the checkout page for one product.
type CheckoutData struct {
	Product ProductCard
	Action  string
}

// RenderCheckout renders the checkout page body.
func RenderCheckout(data CheckoutData) string {
	if data.Action == "" {
		data.Action = "/api/v1/checkout"
	}
	return execute(checkoutTmpl, data)
}
