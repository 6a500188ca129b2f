// Package catalog holds the funnel's product offers and their pricing.
package catalog

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultProductID is served when a page asks for an unknown product.
const DefaultProductID = "1"

// Installments is the card installment count shown next to every price.
const Installments = 12

var ErrProductNotFound = errors.New("product not found")

func moneyContext() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfUp
	return ctx
}

var printer = message.NewPrinter(language.BrazilianPortuguese)

var symbols = map[currency.Unit]string{
	currency.BRL: "R$",
	currency.USD: "US$",
}

type Product struct {
	ID            string
	Name          string
	OriginalPrice apd.Decimal
	Price         apd.Decimal
	Currency      currency.Unit
	Features      []string
	Badges        []string
	Highlight     bool
}

// DiscountPercent is the saving over the original price, rounded to the
// nearest whole percent.
func (p Product) DiscountPercent() int {
	if p.OriginalPrice.IsZero() {
		return 0
	}
	var diff, ratio apd.Decimal
	ctx := moneyContext()
	if _, err := ctx.Sub(&diff, &p.OriginalPrice, &p.Price); err != nil {
		return 0
	}
	if _, err := ctx.Quo(&ratio, &diff, &p.OriginalPrice); err != nil {
		return 0
	}
	if _, err := ctx.Mul(&ratio, &ratio, apd.New(100, 0)); err != nil {
		return 0
	}
	if _, err := ctx.Quantize(&ratio, &ratio, 0); err != nil {
		return 0
	}
	pct, err := ratio.Int64()
	if err != nil {
		return 0
	}
	return int(pct)
}

// Installment is the price of one of Installments card payments, rounded to
// cents.
func (p Product) Installment() apd.Decimal {
	var out apd.Decimal
	ctx := moneyContext()
	if _, err := ctx.Quo(&out, &p.Price, apd.New(Installments, 0)); err != nil {
		return apd.Decimal{}
	}
	if _, err := ctx.Quantize(&out, &out, -2); err != nil {
		return apd.Decimal{}
	}
	return out
}

// Value is the sale price as a float for analytics payloads.
func (p Product) Value() float64 {
	f, err := p.Price.Float64()
	if err != nil {
		return 0
	}
	return f
}

// CurrencyCode is the ISO 4217 code of the product's currency.
func (p Product) CurrencyCode() string {
	return p.Currency.String()
}

func (p Product) PriceLabel() string         { return FormatMoney(p.Price, p.Currency) }
func (p Product) OriginalPriceLabel() string { return FormatMoney(p.OriginalPrice, p.Currency) }

// InstallmentLabel renders e.g. "12x de R$ 16,42".
func (p Product) InstallmentLabel() string {
	return fmt.Sprintf("%dx de %s", Installments, FormatMoney(p.Installment(), p.Currency))
}

// FormatMoney renders an amount the way Brazilian shoppers read it:
// "R$ 1.397,00".
func FormatMoney(amount apd.Decimal, unit currency.Unit) string {
	var rounded apd.Decimal
	ctx := moneyContext()
	if _, err := ctx.Quantize(&rounded, &amount, -2); err != nil {
		rounded.Set(&amount)
	}
	f, err := rounded.Float64()
	if err != nil {
		f = 0
	}
	symbol, ok := symbols[unit]
	if !ok {
		symbol = unit.String()
	}
	return printer.Sprintf("%s %.2f", symbol, f)
}

// Catalog is an ordered, read-only product list.
type Catalog struct {
	products []Product
	byID     map[string]int
}

// New builds a catalog from products. Later duplicates of an id are ignored.
func New(products ...Product) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(products))}
	for _, p := range products {
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// Products returns every product in display order.
func (c *Catalog) Products() []Product {
	return append([]Product(nil), c.products...)
}

// Lookup returns the product with id or ErrProductNotFound.
func (c *Catalog) Lookup(id string) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %q", ErrProductNotFound, id)
	}
	return c.products[i], nil
}

// Resolve returns the product with id, falling back to the default product.
func (c *Catalog) Resolve(id string) Product {
	if p, err := c.Lookup(id); err == nil {
		return p
	}
	if p, err := c.Lookup(DefaultProductID); err == nil {
		return p
	}
	if len(c.products) > 0 {
		return c.products[0]
	}
	return Product{}
}

func mustDecimal(s string) apd.Decimal {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("catalog: bad decimal %q: %v", s, err))
	}
	return *d
}

// Default returns the RevitaMax offer.
func Default() *Catalog {
	return New(
		Product{
			ID:            "1",
			Name:          "RevitaMax Pro - Fórmula Completa",
			OriginalPrice: mustDecimal("397.00"),
			Price:         mustDecimal("197.00"),
			Currency:      currency.BRL,
			Features: []string{
				"90 cápsulas de alta concentração",
				"Fórmula patenteada exclusiva",
				"Acompanhamento nutricional por 6 meses",
				"Garantia de resultados em 21 dias",
				"Certificado de pureza e potência",
				"Frete grátis para todo o Brasil",
			},
			Badges:    []string{"MAIS VENDIDO", "RESULTADOS GARANTIDOS"},
			Highlight: true,
		},
		Product{
			ID:            "2",
			Name:          "RevitaMax Essencial",
			OriginalPrice: mustDecimal("247.00"),
			Price:         mustDecimal("97.00"),
			Currency:      currency.BRL,
			Features: []string{
				"60 cápsulas concentradas",
				"Fórmula base cientificamente testada",
				"Suporte nutricional básico",
				"Garantia de satisfação 30 dias",
				"Certificado de qualidade",
			},
			Badges: []string{"INICIANTE"},
		},
	)
}
