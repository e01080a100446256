// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package adapter turns rendered result pages into raw field maps. Each
// source is a Profile of selector lists consumed by one shared Extractor, so
// the container, identifier, title, date, people, abstract, and link rules
// are written once and only the lookups differ per source.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/patent-scout/internal/dom"
	"github.com/pdiddy/patent-scout/internal/resolve"
	"github.com/pdiddy/patent-scout/internal/textnorm"
	"github.com/pdiddy/patent-scout/pkg/types"
)

// DefaultMaxResults applies when a caller passes a non-positive cap.
const DefaultMaxResults = 10

// MaxPeople caps the inventor and applicant lists of a single item.
const MaxPeople = 5

// ErrNoResults indicates the document never reached a usable state, as
// opposed to a valid page that simply lists nothing.
var ErrNoResults = errors.New("no results container found")

// Adapter extracts raw records from one source's rendered result page.
type Adapter interface {
	Source() types.Source
	ExtractItems(ctx context.Context, doc dom.Document, maxResults int) ([]types.RawFieldMap, error)
}

// Blob is the outcome of splitting a cell that packs several fields into one
// run of text.
type Blob struct {
	Index   string
	Number  string
	Title   string
	Country string
	Date    string
	Rest    string
}

// Profile declares where a source keeps each field.
type Profile struct {
	Source types.Source

	// Containers are tried in order; the first selector with at least one
	// match (after Keep) bounds the item set.
	Containers []string
	Keep       func(dom.Node) bool

	// PrimaryLink locates the item's main link. Its href feeds IDFromURL
	// and becomes the source URL; its text is the first title candidate.
	PrimaryLink []resolve.Lookup
	IDFromURL   []*regexp.Regexp

	AltTitles  []resolve.Lookup
	Inventors  []resolve.Lookup
	Applicants []resolve.Lookup
	// SplitNames splits each people entry on commas and semicolons.
	SplitNames bool

	Dates     []resolve.Lookup
	Abstracts []resolve.Lookup

	// PDFLinks are attribute lookups for a direct PDF link. When none
	// matches, PDFFromDetail derives one from the detail URL and id.
	PDFLinks      []resolve.Lookup
	PDFFromDetail func(detailURL, id string) string

	// SourceURL synthesizes a detail URL when the item has no link.
	SourceURL func(id string) string

	// BlobFrom and Split describe an optional packed cell.
	BlobFrom []resolve.Lookup
	Split    func(string) (Blob, bool)
}

// Extractor runs a Profile against rendered documents.
type Extractor struct {
	profile Profile
	log     *zap.Logger
	now     func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the clock used for the default date.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// New builds an Extractor for profile.
func New(profile Profile, log *zap.Logger, opts ...Option) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Extractor{
		profile: profile,
		log:     log.Named("adapter." + string(profile.Source)),
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Source reports which source the extractor reads.
func (e *Extractor) Source() types.Source { return e.profile.Source }

// ExtractItems locates result containers and extracts one raw field map per
// usable item, in document order, capped at maxResults. Items that lack an
// identifier or title are skipped; an item whose extraction fails is logged
// and skipped without affecting the others.
func (e *Extractor) ExtractItems(ctx context.Context, doc dom.Document, maxResults int) ([]types.RawFieldMap, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if doc == nil || doc.Empty() {
		return nil, fmt.Errorf("%s: %w", e.profile.Source, ErrNoResults)
	}

	items := e.containers(doc)
	if len(items) > maxResults {
		items = items[:maxResults]
	}
	e.log.Debug("located result containers", zap.Int("count", len(items)))

	results := make([]types.RawFieldMap, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		raw, ok := e.safeExtract(item, i, len(results)+1)
		if !ok {
			continue
		}
		results = append(results, raw)
	}
	return results, nil
}

func (e *Extractor) containers(doc dom.Document) []dom.Node {
	for _, sel := range e.profile.Containers {
		var kept []dom.Node
		for _, n := range doc.Find(sel) {
			if e.profile.Keep == nil || e.profile.Keep(n) {
				kept = append(kept, n)
			}
		}
		if len(kept) > 0 {
			return kept
		}
	}
	return nil
}

func (e *Extractor) safeExtract(item dom.Node, index, rank int) (raw types.RawFieldMap, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("skipping item after extraction failure",
				zap.Int("index", index),
				zap.Any("panic", r),
			)
			raw, ok = nil, false
		}
	}()
	raw = e.extract(item, rank)
	if raw == nil {
		e.log.Debug("skipping item without identifier or title", zap.Int("index", index))
		return nil, false
	}
	return raw, true
}

func (e *Extractor) extract(item dom.Node, rank int) types.RawFieldMap {
	p := e.profile

	var href, linkText string
	if link, ok := resolve.Node(item, p.PrimaryLink); ok {
		href, _ = link.Attr("href")
		linkText = textnorm.CleanText(link.Text())
	}

	var blob Blob
	var hasBlob bool
	if p.Split != nil {
		if text := resolve.Text(item, p.BlobFrom); text != "" {
			blob, hasBlob = p.Split(text)
		}
	}

	id := e.identifier(item, href, linkText)
	if id == "" && hasBlob && blob.Country != "" {
		number := blob.Number
		if number == "" && textnorm.IsNumeric(strings.ReplaceAll(linkText, "/", "")) {
			number = linkText
		}
		if number != "" {
			id = blob.Country + number
		}
	}
	if id == "" {
		return nil
	}

	title := e.title(item, id, linkText, blob)
	if title == "" {
		return nil
	}

	raw := types.RawFieldMap{}
	raw.Set(types.FieldID, id)
	raw.Set(types.FieldTitle, title)
	raw.Set(types.FieldDate, e.date(item, blob))
	raw.SetList(types.FieldInventors, e.people(item, p.Inventors))
	if applicants := e.people(item, p.Applicants); len(applicants) > 0 {
		raw.Set(types.FieldApplicant, strings.Join(applicants, "; "))
	}
	raw.Set(types.FieldAbstract, e.abstract(item, title, blob, hasBlob))

	sourceURL := href
	if sourceURL == "" && p.SourceURL != nil {
		sourceURL = p.SourceURL(id)
	}
	raw.Set(types.FieldSourceURL, sourceURL)
	raw.Set(types.FieldPDFURL, e.pdf(item, sourceURL, id))

	if hasBlob && blob.Country != "" {
		raw.Set(types.FieldCountry, blob.Country)
	}
	raw.Set(types.FieldStatus, types.StatusAvailable)
	raw.Set(types.FieldSource, string(p.Source))
	raw.SetInt(types.FieldRank, rank)
	return raw
}

// identifier tries link URL patterns, then the link text, then the item
// text as a whole.
func (e *Extractor) identifier(item dom.Node, href, linkText string) string {
	for _, re := range e.profile.IDFromURL {
		m := re.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		candidate := m[1]
		if unescaped, err := url.PathUnescape(candidate); err == nil {
			candidate = unescaped
		}
		candidate = strings.ToUpper(textnorm.CleanText(candidate))
		if id := textnorm.ExtractIdentifier(candidate); id != "" {
			return id
		}
		if textnorm.IsBareIdentifier(candidate) {
			return candidate
		}
	}
	if id := textnorm.ExtractIdentifier(linkText); id != "" {
		return id
	}
	return textnorm.ExtractIdentifier(textnorm.CleanText(item.Text()))
}

func (e *Extractor) title(item dom.Node, id, linkText string, blob Blob) string {
	if t := textnorm.StripLeadingID(linkText, id); usableTitle(t, id) {
		return t
	}
	if t := textnorm.StripLeadingID(blob.Title, id); usableTitle(t, id) {
		return t
	}
	alt := resolve.Text(item, e.profile.AltTitles,
		resolve.MinLen(utf8.RuneCountInString(id)+6),
		resolve.NotBareIdentifier,
	)
	if t := textnorm.StripLeadingID(alt, id); usableTitle(t, id) {
		return t
	}
	return ""
}

// usableTitle rejects empty titles and titles that are only an identifier
// or a bare publication number.
func usableTitle(t, id string) bool {
	if t == "" || strings.EqualFold(t, id) || textnorm.IsBareIdentifier(t) {
		return false
	}
	return textnorm.ExtractIdentifier(t) != t && !textnorm.IsNumeric(strings.ReplaceAll(t, "/", ""))
}

func (e *Extractor) date(item dom.Node, blob Blob) string {
	if d := textnorm.NormalizeDate(blob.Date); d != "" {
		return d
	}
	if text := resolve.Text(item, e.profile.Dates, resolve.Parses(textnorm.NormalizeDate)); text != "" {
		return textnorm.NormalizeDate(text)
	}
	return e.now().UTC().Format("2006-01-02")
}

var nameSeparators = regexp.MustCompile(`[,;]`)

func (e *Extractor) people(item dom.Node, lookups []resolve.Lookup) []string {
	found := resolve.List(item, lookups, 0, resolve.NotNumeric, resolve.NotIn("-", "not specified"))
	var out []string
	seen := make(map[string]bool)
	for _, entry := range found {
		parts := []string{entry}
		if e.profile.SplitNames {
			parts = nameSeparators.Split(entry, -1)
		}
		for _, part := range parts {
			name := textnorm.CleanText(part)
			if utf8.RuneCountInString(name) <= 1 || textnorm.IsNumeric(name) || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
			if len(out) == MaxPeople {
				return out
			}
		}
	}
	return out
}

func (e *Extractor) abstract(item dom.Node, title string, blob Blob, hasBlob bool) string {
	text := ""
	if hasBlob {
		text = textnorm.CleanText(blob.Rest)
	} else {
		text = resolve.Text(item, e.profile.Abstracts, resolve.NotEqual(title), resolve.MinLen(21))
	}
	if utf8.RuneCountInString(text) <= 20 {
		return types.NoAbstract
	}
	return textnorm.Truncate(text, types.AdapterAbstractCap)
}

func (e *Extractor) pdf(item dom.Node, detailURL, id string) string {
	if link := resolve.Text(item, e.profile.PDFLinks); link != "" {
		return link
	}
	if detailURL == "" || e.profile.PDFFromDetail == nil {
		return ""
	}
	return e.profile.PDFFromDetail(detailURL, id)
}

// withParam appends key=value to rawURL using ? or & as appropriate.
func withParam(rawURL, key, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + key + "=" + url.QueryEscape(value)
}
