// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/pdiddy/patent-scout/internal/resolve"
	"github.com/pdiddy/patent-scout/pkg/types"
)

// GoogleProfile describes Google Patents result pages. Result items have
// shipped as custom elements, classed divs, and plain articles, so every
// field lists the markup generations it has been seen in, newest first.
func GoogleProfile() Profile {
	return Profile{
		Source: types.SourceGoogle,
		Containers: []string{
			"search-result-item",
			".search-result-item",
			"article",
			".result",
			"[data-result]",
			".gs_r",
		},
		PrimaryLink: resolve.Sels(
			`a[href*="patents.google.com"]`,
			`a[href*="patent"]`,
			"h3 a",
			"h4 a",
		),
		IDFromURL: []*regexp.Regexp{
			regexp.MustCompile(`patent/([^/?&#]+)`),
			regexp.MustCompile(`/([A-Z]{2}\d+[A-Z]?\d*)`),
			regexp.MustCompile(`patent=([^&#]+)`),
		},
		AltTitles: resolve.Sels(
			"h3",
			"h4",
			".title",
			".patent-title",
			`[data-result="title"]`,
			".result-title",
		),
		Inventors: resolve.Sels(
			`[data-result="inventor"] span`,
			".inventor span",
			"[data-inventor]",
			".metadata .inventor",
			".author",
			".inventors span",
		),
		Applicants: resolve.Sels(
			`[data-result="assignee"] span`,
			".assignee span",
			".assignee",
			"[data-assignee]",
		),
		Dates: resolve.Sels(
			`[data-result="publication_date"]`,
			".publication-date",
			".pub-date",
			".date",
			"[data-date]",
		),
		Abstracts: resolve.Sels(
			`[data-result="snippet"]`,
			".snippet",
			".abstract",
			".description",
			".summary",
			"p:not(:empty)",
		),
		PDFLinks: []resolve.Lookup{
			resolve.AttrOf(`a[href$=".pdf"]`, "href"),
			resolve.AttrOf(`a[href*="patentimages"]`, "href"),
		},
		PDFFromDetail: func(detailURL, id string) string {
			return withParam(detailURL, "oq", id)
		},
		SourceURL: types.GooglePatentURL,
	}
}

// NewGoogle returns the Google Patents adapter.
func NewGoogle(log *zap.Logger, opts ...Option) *Extractor {
	return New(GoogleProfile(), log, opts...)
}
