package seo

import (
	"fmt"
	"strings"
)

// HintRel is a resource-hint relation.
type HintRel string

const (
	RelPreconnect  HintRel = "preconnect"
	RelDNSPrefetch HintRel = "dns-prefetch"
	RelPreload     HintRel = "preload"
	RelPrefetch    HintRel = "prefetch"
)

// Hint is a <link> resource hint.
type Hint struct {
	Rel         HintRel
	Href        string
	As          string
	Type        string
	Media       string
	CrossOrigin string
}

// Attrs returns the link attributes in a stable order.
func (h Hint) Attrs() [][2]string {
	attrs := [][2]string{{"rel", string(h.Rel)}, {"href", h.Href}}
	for _, kv := range [][2]string{{"as", h.As}, {"type", h.Type}, {"media", h.Media}, {"crossorigin", h.CrossOrigin}} {
		if kv[1] != "" {
			attrs = append(attrs, kv)
		}
	}
	return attrs
}

// LinkValue renders h as one element of an HTTP Link header.
func (h Hint) LinkValue() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s>; rel=%s", h.Href, h.Rel)
	if h.As != "" {
		fmt.Fprintf(&b, "; as=%s", h.As)
	}
	if h.Type != "" {
		fmt.Fprintf(&b, "; type=%q", h.Type)
	}
	if h.Media != "" {
		fmt.Fprintf(&b, "; media=%q", h.Media)
	}
	if h.CrossOrigin != "" {
		fmt.Fprintf(&b, "; crossorigin=%s", h.CrossOrigin)
	}
	return b.String()
}

// LinkHeader joins hints into a single Link header value. Media-scoped
// preloads are left out since Link headers cannot be conditional.
func LinkHeader(hints []Hint) string {
	values := make([]string, 0, len(hints))
	for _, h := range hints {
		if h.Rel == RelPreload && h.Media != "" {
			continue
		}
		values = append(values, h.LinkValue())
	}
	return strings.Join(values, ", ")
}

// CommonHints are served on every page.
func CommonHints() []Hint {
	return []Hint{
		{Rel: RelPreconnect, Href: "https://fonts.googleapis.com"},
		{Rel: RelPreconnect, Href: "https://fonts.gstatic.com", CrossOrigin: "anonymous"},
		{Rel: RelPreconnect, Href: "https://images.unsplash.com"},
		{Rel: RelDNSPrefetch, Href: "https://www.googletagmanager.com"},
		{Rel: RelDNSPrefetch, Href: "https://www.google-analytics.com"},
		{Rel: RelPreload, Href: "/fonts/inter.woff2", As: "font", Type: "font/woff2", CrossOrigin: "anonymous"},
	}
}

// LandingHints adds the video and hero hints of the landing page.
func LandingHints(videoID string) []Hint {
	hints := CommonHints()
	hints = append(hints,
		Hint{Rel: RelDNSPrefetch, Href: "https://www.youtube.com"},
		Hint{Rel: RelDNSPrefetch, Href: "https://i.ytimg.com"},
		Hint{Rel: RelPreload, Href: "/media/images/hero-480w.webp", As: "image", Media: "(max-width: 768px)"},
		Hint{Rel: RelPreload, Href: "/media/images/hero-1200w.webp", As: "image", Media: "(min-width: 769px)"},
	)
	if videoID != "" {
		hints = append(hints, Hint{Rel: RelPreload, Href: VideoThumbnail(videoID), As: "image"})
	}
	return append(hints, Hint{Rel: RelPrefetch, Href: "/obrigado"})
}

// VideoThumbnail is the high resolution YouTube poster for videoID.
func VideoThumbnail(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/maxresdefault.jpg"
}
