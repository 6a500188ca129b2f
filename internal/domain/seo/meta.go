// Package seo describes the document head of each funnel page: meta tags,
// canonical link, resource hints and structured data.
package seo

// MetaConfig is the record a page hands to the head injector.
type MetaConfig struct {
	Title         string
	Description   string
	Keywords      string
	Author        string
	Language      string
	Robots        string
	Canonical     string
	OGType        string
	OGImage       string
	OGImageWidth  string
	OGImageHeight string
	TwitterCard   string
}

// MetaTag is a single <meta> element. Exactly one of Name or Property is set.
type MetaTag struct {
	Name     string
	Property string
	Content  string
}

// Selector is the attribute that identifies the tag in the head.
func (t MetaTag) Selector() (attr, value string) {
	if t.Name != "" {
		return "name", t.Name
	}
	return "property", t.Property
}

const (
	RobotsIndex   = "index, follow"
	RobotsNoIndex = "noindex, nofollow"
)

// DefaultMeta is the landing page head.
func DefaultMeta() MetaConfig {
	return MetaConfig{
		Title:         "RevitaMax Pro - Nutracêutico Revolucionário | Energia e Saúde em 21 Dias",
		Description:   "Descubra o nutracêutico científico que está transformando vidas. Fórmula patenteada, resultados comprovados em 21 dias. 60 dias de garantia.",
		Keywords:      "nutracêuticos, suplementos, energia, saúde, vitalidade, fadiga, imunidade, concentração, científico, comprovado",
		Author:        "RevitaMax Scientific",
		Language:      "pt-BR",
		Robots:        RobotsIndex,
		Canonical:     "https://revitamax-pro.com",
		OGType:        "product",
		OGImage:       "/images/revitamax-social.jpg",
		OGImageWidth:  "1200",
		OGImageHeight: "630",
		TwitterCard:   "summary_large_image",
	}
}

// CheckoutMeta is the checkout head. Checkout is never indexed.
func CheckoutMeta() MetaConfig {
	return Merge(DefaultMeta(), MetaConfig{
		Title:       "Checkout Seguro - RevitaMax Pro",
		Description: "Finalize sua compra com segurança total. Transforme sua saúde hoje mesmo!",
		Robots:      RobotsNoIndex,
	})
}

// ThankYouMeta is the order confirmation head.
func ThankYouMeta() MetaConfig {
	return Merge(DefaultMeta(), MetaConfig{
		Title:       "Compra Confirmada - Sua Jornada de Saúde Começa Agora | RevitaMax",
		Description: "Parabéns! Você deu o primeiro passo para transformar sua saúde. Acesse suas informações de acompanhamento.",
		Robots:      RobotsNoIndex,
	})
}

// Merge returns base with every non-empty field of override applied.
func Merge(base, override MetaConfig) MetaConfig {
	out := base
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&out.Title, override.Title)
	set(&out.Description, override.Description)
	set(&out.Keywords, override.Keywords)
	set(&out.Author, override.Author)
	set(&out.Language, override.Language)
	set(&out.Robots, override.Robots)
	set(&out.Canonical, override.Canonical)
	set(&out.OGType, override.OGType)
	set(&out.OGImage, override.OGImage)
	set(&out.OGImageWidth, override.OGImageWidth)
	set(&out.OGImageHeight, override.OGImageHeight)
	set(&out.TwitterCard, override.TwitterCard)
	return out
}

// Tags lists the meta elements for c in head order. Title and description
// are repeated for the social previews.
func (c MetaConfig) Tags() []MetaTag {
	return []MetaTag{
		{Name: "description", Content: c.Description},
		{Name: "keywords", Content: c.Keywords},
		{Name: "author", Content: c.Author},
		{Name: "robots", Content: c.Robots},
		{Property: "og:title", Content: c.Title},
		{Property: "og:description", Content: c.Description},
		{Property: "og:type", Content: c.OGType},
		{Property: "og:image", Content: c.OGImage},
		{Property: "og:image:width", Content: c.OGImageWidth},
		{Property: "og:image:height", Content: c.OGImageHeight},
		{Name: "twitter:card", Content: c.TwitterCard},
		{Name: "twitter:title", Content: c.Title},
		{Name: "twitter:description", Content: c.Description},
		{Name: "twitter:image", Content: c.OGImage},
	}
}
