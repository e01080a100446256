// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/patent-scout/internal/dom"
	"github.com/pdiddy/patent-scout/internal/resolve"
	"github.com/pdiddy/patent-scout/internal/textnorm"
	"github.com/pdiddy/patent-scout/pkg/types"
)

// WIPOProfile describes PATENTSCOPE result tables. Rows often pack the index,
// publication number, title, office, and date into one cell, which Split
// takes apart.
func WIPOProfile() Profile {
	return Profile{
		Source: types.SourceWIPO,
		Containers: []string{
			"tbody tr",
			".ps-patent-result",
			".search-result",
			`[class*="result"]`,
		},
		Keep: wipoRow,
		PrimaryLink: resolve.Sels(
			`a[href*="detail"]`,
			".patent-title a",
			".title a",
			"td:nth-child(2) a",
		),
		IDFromURL: []*regexp.Regexp{
			regexp.MustCompile(`docId=([A-Za-z]{2}[A-Za-z0-9]+)`),
		},
		AltTitles: resolve.Sels(
			".patent-title",
			".title",
			"td:nth-child(2)",
			"h3",
			"h4",
		),
		Inventors: resolve.Sels(
			".inventor",
			".inventors",
			`[class*="inventor"]`,
		),
		Applicants: resolve.Sels(
			".assignee",
			".applicant",
			"td:nth-child(4)",
			`[class*="applicant"]`,
		),
		SplitNames: true,
		Dates: resolve.Sels(
			".publication-date",
			".date",
			"td:nth-child(3)",
			`[class*="date"]`,
		),
		Abstracts: resolve.Sels(
			".abstract",
			".description",
			"td:last-child",
		),
		PDFLinks: []resolve.Lookup{
			resolve.AttrOf(`a[href*=".pdf"]`, "href"),
			resolve.AttrOf(`a[title*="PDF"]`, "href"),
		},
		PDFFromDetail: func(detailURL, _ string) string {
			return withParam(detailURL, "format", "pdf")
		},
		BlobFrom: resolve.Sels("td:last-child", ".ps-patent-result--first-row"),
		Split:    SplitBlob,
	}
}

// NewWIPO returns the PATENTSCOPE adapter.
func NewWIPO(log *zap.Logger, opts ...Option) *Extractor {
	return New(WIPOProfile(), log, opts...)
}

// wipoRow drops layout rows that carry no patent data.
func wipoRow(n dom.Node) bool {
	if len(n.Find(`a[href*="detail"]`)) > 0 || len(n.Find(`a[href*="patent"]`)) > 0 {
		return true
	}
	text := strings.ToLower(n.Text())
	return strings.Contains(text, "patent") || strings.Contains(text, "application")
}

var blobLayout = regexp.MustCompile(`(?s)^\s*(\d+)\.\s*(?:(\d{4,}(?:/\d+)?)\s+)?(.+?)\s+([A-Z]{2})\s*-\s*(\d{1,2}\.\d{1,2}\.\d{4})\s*(.*)$`)

// SplitBlob splits a packed result cell of the form
//
//	"<index>. [<number>] <title> <COUNTRY> - <DD.MM.YYYY> [<abstract>]"
//
// into its parts. The date is returned normalized. Text in any other layout
// is not split.
func SplitBlob(text string) (Blob, bool) {
	m := blobLayout.FindStringSubmatch(textnorm.CleanText(text))
	if m == nil {
		return Blob{}, false
	}
	return Blob{
		Index:   m[1],
		Number:  m[2],
		Title:   textnorm.CleanText(m[3]),
		Country: m[4],
		Date:    textnorm.NormalizeDate(m[5]),
		Rest:    textnorm.CleanText(m[6]),
	}, true
}
