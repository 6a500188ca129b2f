package seo

import (
	"encoding/json"
	"time"
)

// PriceValidity is how long the advertised offer price stays valid.
const PriceValidity = 7 * 24 * time.Hour

type thing struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type offer struct {
	Type            string `json:"@type"`
	Price           string `json:"price"`
	PriceCurrency   string `json:"priceCurrency"`
	Availability    string `json:"availability"`
	ValidFrom       string `json:"validFrom"`
	PriceValidUntil string `json:"priceValidUntil"`
	Seller          thing  `json:"seller"`
}

type rating struct {
	Type        string `json:"@type"`
	RatingValue string `json:"ratingValue"`
	ReviewCount string `json:"reviewCount"`
	BestRating  string `json:"bestRating"`
	WorstRating string `json:"worstRating"`
}

type property struct {
	Type  string `json:"@type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProductSchema is schema.org Product structured data.
type ProductSchema struct {
	Context            string     `json:"@context"`
	Type               string     `json:"@type"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Brand              thing      `json:"brand"`
	Category           string     `json:"category"`
	Manufacturer       thing      `json:"manufacturer"`
	Offers             offer      `json:"offers"`
	AggregateRating    rating     `json:"aggregateRating"`
	AdditionalProperty []property `json:"additionalProperty"`
}

// OfferInput is what the landing page knows about the featured offer.
type OfferInput struct {
	Name        string
	Description string
	Price       string
	Currency    string
}

// NewProductSchema builds the landing page structured data. The offer is
// valid from now for PriceValidity.
func NewProductSchema(in OfferInput, now time.Time) ProductSchema {
	now = now.UTC()
	return ProductSchema{
		Context:      "https://schema.org",
		Type:         "Product",
		Name:         in.Name,
		Description:  in.Description,
		Brand:        thing{Type: "Brand", Name: "RevitaMax Scientific"},
		Category:     "Nutracêuticos",
		Manufacturer: thing{Type: "Organization", Name: "RevitaMax Labs"},
		Offers: offer{
			Type:            "Offer",
			Price:           in.Price,
			PriceCurrency:   in.Currency,
			Availability:    "https://schema.org/InStock",
			ValidFrom:       now.Format(time.RFC3339),
			PriceValidUntil: now.Add(PriceValidity).Format(time.RFC3339),
			Seller:          thing{Type: "Organization", Name: "RevitaMax Scientific"},
		},
		AggregateRating: rating{
			Type:        "AggregateRating",
			RatingValue: "4.9",
			ReviewCount: "15847",
			BestRating:  "5",
			WorstRating: "1",
		},
		AdditionalProperty: []property{
			{Type: "PropertyValue", Name: "Certificação", Value: "✓ Aprovado por Médicos"},
			{Type: "PropertyValue", Name: "Garantia", Value: "60 dias"},
			{Type: "PropertyValue", Name: "Resultados", Value: "21 dias"},
		},
	}
}

// JSON encodes the schema for an application/ld+json script.
func (p ProductSchema) JSON() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
