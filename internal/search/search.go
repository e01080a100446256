// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search renders each requested source's result page, runs the
// matching extractor, and normalizes the items into PatentRecords. Sources
// are queried concurrently; a failing source becomes a warning unless every
// source fails.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/patent-scout/internal/adapter"
	"github.com/pdiddy/patent-scout/internal/metrics"
	"github.com/pdiddy/patent-scout/internal/normalize"
	"github.com/pdiddy/patent-scout/internal/render"
	"github.com/pdiddy/patent-scout/pkg/types"
)

// MaxResultsCap bounds the per-source result count a request may ask for.
const MaxResultsCap = 100

const (
	defaultTimeout = 90 * time.Second

	// SourceAll selects every configured source.
	SourceAll = "all"
)

var (
	ErrEmptyKeywords    = errors.New("keywords are required")
	ErrUnknownSource    = errors.New("unknown source")
	ErrAllSourcesFailed = errors.New("all sources failed")
)

// Keywords is a keyword list that decodes from either a JSON string or a
// JSON array of strings.
type Keywords []string

// UnmarshalJSON accepts "widget" as well as ["widget", "clamp"].
func (k *Keywords) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*k = Keywords{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("keywords must be a string or a list of strings")
	}
	*k = many
	return nil
}

// Clean trims each keyword and drops blanks.
func (k Keywords) Clean() Keywords {
	out := make(Keywords, 0, len(k))
	for _, kw := range k {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Request is one search across one or all sources.
type Request struct {
	Keywords   Keywords `json:"keywords" yaml:"keywords"`
	MaxResults int      `json:"maxResults,omitempty" yaml:"max_results,omitempty"`
	Source     string   `json:"source,omitempty" yaml:"source,omitempty"`
}

// Response aggregates the normalized records of every source that answered.
type Response struct {
	Patents   []types.PatentRecord `json:"patents" yaml:"patents"`
	Total     int                  `json:"total" yaml:"total"`
	Keywords  Keywords             `json:"keywords" yaml:"keywords"`
	Timestamp time.Time            `json:"timestamp" yaml:"timestamp"`
	Sources   []types.Source       `json:"sources" yaml:"sources"`
	Warnings  []string             `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Searcher is the behaviour the HTTP layer and CLI depend on.
type Searcher interface {
	Search(ctx context.Context, req Request) (Response, error)
}

// source pairs a page plan with the extractor that understands it.
type source struct {
	adapter adapter.Adapter
	page    func(keywords []string) render.Page
}

// Service runs searches.
type Service struct {
	renderer render.Renderer
	cfg      types.SearchConfig
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	sources  map[types.Source]source
	defaults []types.Source
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records per-source latency and outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces the clock used for timestamps and default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the Google and WIPO extractors to renderer. cfg.Sources
// names the sources used for "all"; unknown names are logged and skipped.
func NewService(renderer render.Renderer, cfg types.SearchConfig, log *zap.Logger, opts ...Option) *Service {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = adapter.DefaultMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		renderer: renderer,
		cfg:      cfg,
		log:      log.Named("search"),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	clock := adapter.WithClock(s.now)
	s.sources = map[types.Source]source{
		types.SourceGoogle: {adapter: adapter.NewGoogle(log, clock), page: GooglePage},
		types.SourceWIPO:   {adapter: adapter.NewWIPO(log, clock), page: WIPOPage},
	}

	names := cfg.Sources
	if len(names) == 0 {
		names = []string{string(types.SourceGoogle), string(types.SourceWIPO)}
	}
	seen := make(map[types.Source]bool)
	for _, n := range names {
		src, ok := types.ParseSource(n)
		if !ok {
			s.log.Warn("ignoring unknown source in configuration", zap.String("source", n))
			continue
		}
		if !seen[src] {
			seen[src] = true
			s.defaults = append(s.defaults, src)
		}
	}
	return s
}

// Sources resolves a request's source field. Empty and "all" select the
// configured defaults.
func (s *Service) Sources(name string) ([]types.Source, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, SourceAll) {
		return append([]types.Source(nil), s.defaults...), nil
	}
	src, ok := types.ParseSource(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return []types.Source{src}, nil
}

// MaxResults clamps a requested count to [1, MaxResultsCap], substituting
// the configured default when n is not positive.
func (s *Service) MaxResults(n int) int {
	if n <= 0 {
		n = s.cfg.MaxResults
	}
	return min(n, MaxResultsCap)
}

type outcome struct {
	records []types.PatentRecord
	err     error
}

// Search queries the selected sources concurrently and joins their records
// in source order. When every source fails the partial Response (holding
// the warnings) is returned together with an error wrapping
// ErrAllSourcesFailed.
func (s *Service) Search(ctx context.Context, req Request) (Response, error) {
	keywords := req.Keywords.Clean()
	if len(keywords) == 0 {
		return Response{}, ErrEmptyKeywords
	}
	sources, err := s.Sources(req.Source)
	if err != nil {
		return Response{}, err
	}
	maxResults := s.MaxResults(req.MaxResults)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	s.log.Info("searching",
		zap.Strings("keywords", keywords),
		zap.Int("max_results", maxResults),
		zap.Any("sources", sources),
	)

	outcomes := make([]outcome, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			outcomes[i] = s.searchSource(ctx, src, keywords, maxResults)
			return nil
		})
	}
	_ = g.Wait()

	resp := Response{
		Patents:   []types.PatentRecord{},
		Keywords:  keywords,
		Timestamp: s.now().UTC(),
		Sources:   sources,
	}
	for i, o := range outcomes {
		if o.err != nil {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s: %v", sources[i], o.err))
			continue
		}
		resp.Patents = append(resp.Patents, o.records...)
	}
	resp.Total = len(resp.Patents)

	if len(resp.Warnings) == len(sources) {
		return resp, fmt.Errorf("%w: %s", ErrAllSourcesFailed, strings.Join(resp.Warnings, "; "))
	}
	return resp, nil
}

func (s *Service) searchSource(ctx context.Context, name types.Source, keywords []string, maxResults int) outcome {
	src, ok := s.sources[name]
	if !ok {
		return outcome{err: fmt.Errorf("%w: %q", ErrUnknownSource, name)}
	}

	start := time.Now()
	records, err := s.run(ctx, src, keywords, maxResults)
	elapsed := time.Since(start)
	s.metrics.ObserveSearch(string(name), elapsed, len(records), err)

	if err != nil {
		s.log.Warn("source failed",
			zap.String("source", string(name)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return outcome{err: err}
	}
	s.log.Info("source complete",
		zap.String("source", string(name)),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", elapsed),
	)
	return outcome{records: records}
}

func (s *Service) run(ctx context.Context, src source, keywords []string, maxResults int) ([]types.PatentRecord, error) {
	doc, err := s.renderer.Render(ctx, src.page(keywords))
	if err != nil {
		return nil, fmt.Errorf("rendering results: %w", err)
	}
	raws, err := src.adapter.ExtractItems(ctx, doc, maxResults)
	if err != nil {
		return nil, err
	}
	return normalize.All(raws), nil
}

// FormatTable writes a human-readable listing of resp to w.
func FormatTable(resp Response, w io.Writer) {
	for _, warn := range resp.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	if len(resp.Patents) == 0 {
		fmt.Fprintln(w, "No patents found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-18s  %-56s  %-10s  %s\n", "Rank", "ID", "Title", "Date", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, p := range resp.Patents {
		fmt.Fprintf(w, "%-4d  %-18s  %-56s  %-10s  %s\n",
			p.Rank, p.ID, truncate(p.Title, 56), p.Date, p.Source)
	}
	fmt.Fprintf(w, "\n%d patents\n", resp.Total)
}

// FormatJSON writes resp as indented JSON to w.
func FormatJSON(resp Response, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
