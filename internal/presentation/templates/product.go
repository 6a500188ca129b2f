package templates

import (
	"html/template"

	"github.com/AtRiskMedia/vsl-go/internal/domain/catalog"
)

var productSectionTmpl = template.Must(template.New("productSection").Parse(
	`<section id="produtos" class="products">` +
		`<h2>Escolha Sua Transformação</h2>` +
		`<p class="products-lead">Nutracêuticos de última geração com tecnologia patenteada. Mais de 50.000 vidas transformadas pela ciência!</p>` +
		`<ul class="trust-badges"><li>✓ Aprovado por Médicos</li><li>✓ Estudos Clínicos</li><li>✓ Resultados Comprovados</li><li>✓ Garantia Total</li></ul>` +
		`<div class="product-grid">` +
		`{{range .}}` +
		`<article class="product-card{{if .Highlight}} product-card--highlight{{end}}" data-product-id="{{.ID}}">` +
		`{{if .Badges}}<div class="product-badges">{{range .Badges}}<span class="badge">{{.}}</span>{{end}}</div>{{end}}` +
		`<h3>{{.Name}}</h3>` +
		`<div class="price">` +
		`<s class="price-original">{{.OriginalPrice}}</s>` +
		`<strong class="price-sale">{{.Price}}</strong>` +
		`{{if .Discount}}<span class="price-discount">-{{.Discount}}%</span>{{end}}` +
		`</div>` +
		`<p class="price-installment">ou {{.Installment}} no cartão</p>` +
		`<ul class="features">{{range .Features}}<li>{{.}}</li>{{end}}</ul>` +
		`<a class="cta" href="{{.CheckoutURL}}" data-cta="product_{{.ID}}_cta" data-position="product_section" data-product-id="{{.ID}}" data-begin-checkout>QUERO TRANSFORMAR MINHA SAÚDE</a>` +
		`<p class="secure">Pagamento 100% Seguro</p>` +
		`</article>` +
		`{{end}}` +
		`</div>` +
		`<div class="guarantee">` +
		`<h3>Garantia Científica de 60 Dias</h3>` +
		`<p>Se você não sentir diferença real na sua saúde e energia em 60 dias, devolvemos 100% do seu investimento.</p>` +
		`</div>` +
		`</section>`,
))

// ProductCard is a catalog product as the pages display it.
type ProductCard struct {
	ID            string
	Name          string
	OriginalPrice string
	Price         string
	Discount      int
	Installment   string
	Features      []string
	Badges        []string
	Highlight     bool
	CheckoutURL   string
}

// NewProductCard formats p for display. checkoutURL is the already
// annotated link the CTA points to.
func NewProductCard(p catalog.Product, checkoutURL string) ProductCard {
	return ProductCard{
		ID:            p.ID,
		Name:          p.Name,
		OriginalPrice: p.OriginalPriceLabel(),
		Price:         p.PriceLabel(),
		Discount:      p.DiscountPercent(),
		Installment:   p.InstallmentLabel(),
		Features:      p.Features,
		Badges:        p.Badges,
		Highlight:     p.Highlight,
		CheckoutURL:   checkoutURL,
	}
}

// RenderProductSection renders the offer cards.
func RenderProductSection(cards []ProductCard) string {
	return execute(productSectionTmpl, cards)
}
