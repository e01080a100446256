// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dom exposes a read-only view of a rendered HTML document. Adapters
// receive a Document and query it through CSS selectors; they never see the
// browser that produced it, so they can be exercised against synthetic HTML.
package dom

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is a queryable element scope. Implementations must not mutate the
// underlying document.
type Node interface {
	// Find returns every descendant matching selector in document order.
	// An invalid selector matches nothing.
	Find(selector string) []Node

	// Text returns the concatenated text content, uncleaned.
	Text() string

	// Attr returns an attribute value. URL-valued attributes (href, src)
	// are resolved against the document URL.
	Attr(name string) (string, bool)
}

// Document is the root of a rendered page.
type Document interface {
	Node

	// URL is the page address the document was captured from.
	URL() string

	// Empty reports whether the body carries no elements and no text,
	// meaning the page never reached a usable state.
	Empty() bool
}

type document struct {
	node
	raw string
}

type node struct {
	sel  *goquery.Selection
	base *url.URL
}

// NewDocument parses HTML from r. pageURL becomes the base for resolving
// relative links and may be empty.
func NewDocument(r io.Reader, pageURL string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	var base *url.URL
	if pageURL != "" {
		base, err = url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("parsing document url %q: %w", pageURL, err)
		}
	}
	return &document{node: node{sel: doc.Selection, base: base}, raw: pageURL}, nil
}

// FromHTML is a convenience wrapper around NewDocument for in-memory markup.
func FromHTML(html, pageURL string) (Document, error) {
	return NewDocument(strings.NewReader(html), pageURL)
}

func (d *document) URL() string { return d.raw }

func (d *document) Empty() bool {
	body := d.sel.Find("body")
	return body.Children().Length() == 0 && strings.TrimSpace(body.Text()) == ""
}

func (n node) Find(selector string) []Node {
	matches := n.sel.Find(selector)
	out := make([]Node, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		out = append(out, node{sel: s, base: n.base})
	})
	return out
}

func (n node) Text() string {
	return n.sel.Text()
}

func (n node) Attr(name string) (string, bool) {
	v, ok := n.sel.Attr(name)
	if !ok {
		return "", false
	}
	switch strings.ToLower(name) {
	case "href", "src":
		return n.resolve(v), true
	}
	return v, true
}

func (n node) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if n.base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return n.base.ResolveReference(u).String()
}
