// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/url"
	"strings"

	"github.com/pdiddy/patent-scout/internal/render"
)

// Entry points for each source. Declared as vars so tests can substitute an
// httptest server.
var (
	googleSearchBase = "https://patents.google.com/"
	wipoSearchURL    = "https://patentscope.wipo.int/search/en/advancedSearch.jsf"
)

// wipoInputs are the query boxes of the PATENTSCOPE advanced search form,
// most specific first.
var wipoInputs = []string{
	`textarea[placeholder*="search" i]`,
	`textarea[name*="search"]`,
	`textarea[id*="fpSearch"]`,
	`textarea`,
}

// GoogleURL builds a results URL with one full-text clause per keyword:
// ?q=CL%3d(first)&q=CL%3d(second).
func GoogleURL(keywords []string) string {
	clauses := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		clauses = append(clauses, "q=CL%3d("+encodeComponent(kw)+")")
	}
	return googleSearchBase + "?" + strings.Join(clauses, "&")
}

// encodeComponent percent-encodes s for a query value, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// GooglePage plans the Google Patents results page for keywords.
func GooglePage(keywords []string) render.Page {
	return render.Page{
		URL:          GoogleURL(keywords),
		WaitSelector: "search-result-item",
	}
}

// WIPOPage plans a PATENTSCOPE advanced search: the keywords are typed into
// the form and the results table is awaited.
func WIPOPage(keywords []string) render.Page {
	return render.Page{
		URL: wipoSearchURL,
		Form: &render.Form{
			InputSelectors: wipoInputs,
			Text:           strings.Join(keywords, " "),
		},
		WaitSelector: ".search-results, .results, tbody tr",
	}
}
