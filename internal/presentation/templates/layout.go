// Package templates renders the funnel pages. Each section is a small
// html/template rendered to a string; pages compose sections and the layout
// wraps them into a document the head injector can finish.
package templates

import (
	"bytes"
	"html/template"
	"log"
)

// Page names carried on <body data-page>.
const (
	PageLanding  = "landing"
	PageCheckout = "checkout"
	PageThankYou = "obrigado"
)

var layoutTmpl = template.Must(template.New("layout").Parse(
	`<!DOCTYPE html>` +
		`<html lang="{{.Lang}}">` +
		`<head>` +
		`<meta charset="utf-8">` +
		`<meta name="viewport" content="width=device-width, initial-scale=1">` +
		`<title>{{.Title}}</title>` +
		`<link rel="stylesheet" href="/static/funnel.css">` +
		`</head>` +
		`<body data-page="{{.Page}}" data-page-view="{{.PageViewID}}">` +
		`{{.Body}}` +
		`{{.Footer}}` +
		`<script src="/static/funnel.js" defer></script>` +
		`</body>` +
		`</html>`,
))

// LayoutData is the document shell around a page body.
type LayoutData struct {
	Lang       string
	Title      string
	Page       string
	PageViewID string
	Body       template.HTML
	Footer     template.HTML
}

// RenderLayout wraps a rendered page body into a full HTML document.
func RenderLayout(data LayoutData) string {
	if data.Lang == "" {
		data.Lang = "pt-BR"
	}
	if data.Footer == "" {
		data.Footer = template.HTML(RenderFooter())
	}
	return execute(layoutTmpl, data)
}

func execute(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Printf("ERROR: Failed to execute %s template: %v", tmpl.Name(), err)
		return `<!-- template error -->`
	}
	return buf.String()
}
