package seo

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	base := DefaultMeta()

	merged := Merge(base, MetaConfig{Title: "Outro", Robots: RobotsNoIndex})

	assert.Equal(t, "Outro", merged.Title)
	assert.Equal(t, RobotsNoIndex, merged.Robots)
	assert.Equal(t, base.Description, merged.Description)
	assert.Equal(t, base.Canonical, merged.Canonical)
	assert.Equal(t, base, Merge(base, MetaConfig{}))
}

func TestPresets(t *testing.T) {
	assert.Equal(t, RobotsIndex, DefaultMeta().Robots)

	checkout := CheckoutMeta()
	assert.Equal(t, "Checkout Seguro - RevitaMax Pro", checkout.Title)
	assert.Equal(t, RobotsNoIndex, checkout.Robots)
	assert.Equal(t, DefaultMeta().OGImage, checkout.OGImage)

	thanks := ThankYouMeta()
	assert.True(t, strings.HasPrefix(thanks.Title, "Compra Confirmada"))
	assert.Equal(t, RobotsNoIndex, thanks.Robots)
}

func TestTags(t *testing.T) {
	cfg := DefaultMeta()
	tags := cfg.Tags()

	require.Len(t, tags, 14)
	seen := map[string]string{}
	for _, tag := range tags {
		attr, key := tag.Selector()
		assert.NotEmpty(t, key)
		seen[attr+"="+key] = tag.Content
	}
	assert.Len(t, seen, 14)
	assert.Equal(t, cfg.Title, seen["property=og:title"])
	assert.Equal(t, cfg.Title, seen["name=twitter:title"])
	assert.Equal(t, cfg.OGImage, seen["name=twitter:image"])
	assert.Equal(t, cfg.Robots, seen["name=robots"])
}

func TestHints(t *testing.T) {
	hints := LandingHints("8bRCsjRE2fQ")

	var hrefs []string
	for _, h := range hints {
		hrefs = append(hrefs, string(h.Rel)+" "+h.Href)
	}
	assert.Contains(t, hrefs, "preconnect https://fonts.gstatic.com")
	assert.Contains(t, hrefs, "dns-prefetch https://i.ytimg.com")
	assert.Contains(t, hrefs, "preload https://i.ytimg.com/vi/8bRCsjRE2fQ/maxresdefault.jpg")
	assert.Contains(t, hrefs, "prefetch /obrigado")

	header := LinkHeader(hints)
	assert.Contains(t, header, `</fonts/inter.woff2>; rel=preload; as=font; type="font/woff2"; crossorigin=anonymous`)
	assert.NotContains(t, header, "hero-480w", "media-scoped preloads stay in the document")

	font := Hint{Rel: RelPreload, Href: "/f.woff2", As: "font", CrossOrigin: "anonymous"}
	assert.Equal(t, [][2]string{{"rel", "preload"}, {"href", "/f.woff2"}, {"as", "font"}, {"crossorigin", "anonymous"}}, font.Attrs())
}

func TestProductSchema(t *testing.T) {
	now := time.Date(2025, 5, 10, 9, 30, 0, 0, time.UTC)
	schema := NewProductSchema(OfferInput{Name: "RevitaMax Pro", Price: "197.00", Currency: "BRL"}, now)

	raw, err := schema.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "Product", decoded["@type"])
	offers := decoded["offers"].(map[string]any)
	assert.Equal(t, "197.00", offers["price"])
	assert.Equal(t, "2025-05-10T09:30:00Z", offers["validFrom"])
	assert.Equal(t, "2025-05-17T09:30:00Z", offers["priceValidUntil"])
}
