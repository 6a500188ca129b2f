// Package htmlhead rewrites the <head> of rendered pages: title, meta tags,
// canonical link, resource hints and structured data.
package htmlhead

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/AtRiskMedia/vsl-go/internal/domain/seo"
	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StructuredDataID identifies the JSON-LD script managed by the injector.
const StructuredDataID = "structured-data"

// Head is everything injected into one document.
type Head struct {
	Meta   seo.MetaConfig
	Hints  []seo.Hint
	JSONLD string
}

// Inject applies head to the document in src. Existing elements are updated
// in place; missing ones are appended to <head>. Empty meta values leave the
// document untouched.
func Inject(src []byte, head Head) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	root := findElement(doc, atom.Html)
	headNode := findElement(doc, atom.Head)
	if root == nil || headNode == nil {
		return nil, fmt.Errorf("document has no head")
	}

	if head.Meta.Language != "" {
		setAttr(root, "lang", head.Meta.Language)
	}
	if head.Meta.Title != "" {
		setTitle(headNode, head.Meta.Title)
	}
	for _, tag := range head.Meta.Tags() {
		if tag.Content == "" {
			continue
		}
		upsertMeta(headNode, tag)
	}
	if head.Meta.Canonical != "" {
		upsertLink(headNode, "canonical", head.Meta.Canonical, [][2]string{{"rel", "canonical"}, {"href", head.Meta.Canonical}})
	}
	for _, hint := range head.Hints {
		if findLink(headNode, string(hint.Rel), hint.Href) == nil {
			headNode.AppendChild(element(atom.Link, hint.Attrs()))
		}
	}
	if head.JSONLD != "" {
		setStructuredData(headNode, head.JSONLD)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

// Pretty indents a rendered document.
func Pretty(src []byte) []byte {
	return gohtml.FormatBytes(src)
}

func setTitle(head *html.Node, title string) {
	node := firstChild(head, atom.Title)
	if node == nil {
		node = element(atom.Title, nil)
		head.AppendChild(node)
	}
	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		node.RemoveChild(c)
		c = next
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: title})
}

func upsertMeta(head *html.Node, tag seo.MetaTag) {
	attr, key := tag.Selector()
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Meta && getAttr(c, attr) == key {
			setAttr(c, "content", tag.Content)
			return
		}
	}
	head.AppendChild(element(atom.Meta, [][2]string{{attr, key}, {"content", tag.Content}}))
}

func upsertLink(head *html.Node, rel, href string, attrs [][2]string) {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Link && strings.EqualFold(getAttr(c, "rel"), rel) {
			setAttr(c, "href", href)
			return
		}
	}
	head.AppendChild(element(atom.Link, attrs))
}

func findLink(head *html.Node, rel, href string) *html.Node {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Link &&
			strings.EqualFold(getAttr(c, "rel"), rel) && getAttr(c, "href") == href {
			return c
		}
	}
	return nil
}

func setStructuredData(head *html.Node, data string) {
	var script *html.Node
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Script && getAttr(c, "id") == StructuredDataID {
			script = c
			break
		}
	}
	if script == nil {
		script = element(atom.Script, [][2]string{{"id", StructuredDataID}, {"type", "application/ld+json"}})
		head.AppendChild(script)
	}
	for c := script.FirstChild; c != nil; {
		next := c.NextSibling
		script.RemoveChild(c)
		c = next
	}
	// script content is raw text; a closing tag inside the payload must not end it early
	script.AppendChild(&html.Node{Type: html.TextNode, Data: strings.ReplaceAll(data, "</", `<\/`)})
}

func element(a atom.Atom, attrs [][2]string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for _, kv := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[0], Val: kv[1]})
	}
	return n
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func firstChild(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
