// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads patent PDFs, validates the payload signature,
// and persists each artifact under a filename derived from its identifier.
// Batch acquisition records one independent outcome per identifier.
package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/patent-scout/internal/httputil"
	"github.com/pdiddy/patent-scout/internal/metrics"
	"github.com/pdiddy/patent-scout/pkg/types"
)

// BrowserUserAgent is sent when the configuration leaves the user agent
// empty. PDF hosts reject obvious non-browser clients.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	defaultTimeout  = 60 * time.Second
	defaultMaxBytes = 50 << 20
)

var pdfMagic = []byte("%PDF")

// Request names one identifier and, optionally, where to fetch it.
type Request struct {
	PatentID string `json:"patentId"`
	URL      string `json:"pdfUrl,omitempty"`
}

// Artifact is a validated, stored PDF.
type Artifact struct {
	PatentID string
	Location string
	Data     []byte
}

// Size returns the payload length in bytes.
func (a Artifact) Size() int64 { return int64(len(a.Data)) }

// Acquirer fetches and stores PDFs.
type Acquirer struct {
	client  *http.Client
	store   ArtifactStore
	cfg     types.AcquisitionConfig
	log     *zap.Logger
	metrics *metrics.Metrics
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithMetrics records download outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Acquirer) { a.metrics = m }
}

// New builds an Acquirer. A nil client gets one bounded by cfg.Timeout.
func New(client *http.Client, store ArtifactStore, cfg types.AcquisitionConfig, log *zap.Logger, opts ...Option) *Acquirer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = BrowserUserAgent
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	a := &Acquirer{
		client: client,
		store:  store,
		cfg:    cfg,
		log:    log.Named("acquire"),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Store returns the artifact store the acquirer writes to.
func (a *Acquirer) Store() ArtifactStore { return a.store }

// Acquire downloads id from sourceURL and returns the stored location. An
// empty sourceURL falls back to the Google Patents page for id.
func (a *Acquirer) Acquire(ctx context.Context, id, sourceURL string) (string, error) {
	art, err := a.Download(ctx, id, sourceURL)
	if err != nil {
		return "", err
	}
	return art.Location, nil
}

// Download is Acquire that also returns the validated bytes. The payload is
// checked before anything is written, so an invalid payload never creates
// an artifact.
func (a *Acquirer) Download(ctx context.Context, id, sourceURL string) (Artifact, error) {
	id = strings.TrimSpace(id)
	if sourceURL == "" {
		sourceURL = DetailURL(id)
	}

	data, err := a.fetch(ctx, id, sourceURL)
	if err == nil {
		err = validate(data, a.cfg.MaxBytes)
	}
	var location string
	if err == nil {
		location, err = a.store.Put(ctx, id, data)
	}
	if err != nil {
		a.metrics.ObserveDownload(Outcome(err), 0)
		a.log.Warn("download failed",
			zap.String("patent_id", id),
			zap.String("url", sourceURL),
			zap.String("outcome", Outcome(err)),
			zap.Error(err),
		)
		return Artifact{}, &DownloadError{PatentID: id, URL: sourceURL, Err: err}
	}

	a.metrics.ObserveDownload(Outcome(nil), int64(len(data)))
	a.log.Info("downloaded",
		zap.String("patent_id", id),
		zap.String("location", location),
		zap.Int("bytes", len(data)),
	)
	return Artifact{PatentID: id, Location: location, Data: data}, nil
}

func (a *Acquirer) fetch(ctx context.Context, id, sourceURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf,*/*")
	req.Header.Set("Referer", DetailURL(id))

	resp, err := httputil.DoWithRetry(ctx, a.client, req, a.cfg.MaxRetries, a.log)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &HTTPStatusError{Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, a.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return data, nil
}

func validate(data []byte, maxBytes int64) error {
	if !bytes.HasPrefix(data, pdfMagic) {
		prefix := data
		if len(prefix) > 16 {
			prefix = prefix[:16]
		}
		return &InvalidContentError{Prefix: append([]byte(nil), prefix...)}
	}
	if int64(len(data)) > maxBytes {
		return &InvalidContentError{Prefix: data[:len(pdfMagic)], Reason: fmt.Sprintf("exceeds %d bytes", maxBytes)}
	}
	return nil
}

// AcquireBatch acquires each identifier from its default URL. See
// AcquireRequests.
func (a *Acquirer) AcquireBatch(ctx context.Context, ids []string) []types.DownloadResult {
	reqs := make([]Request, len(ids))
	for i, id := range ids {
		reqs[i] = Request{PatentID: id}
	}
	return a.AcquireRequests(ctx, reqs)
}

// AcquireRequests returns exactly one result per request, in request order.
// A failure never stops the batch. At most MaxConcurrent downloads are in
// flight, and consecutive starts are spaced by DownloadDelay.
func (a *Acquirer) AcquireRequests(ctx context.Context, reqs []Request) []types.DownloadResult {
	results := make([]types.DownloadResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(a.cfg.MaxConcurrent)

	for i, r := range reqs {
		if i > 0 && a.cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(a.cfg.DownloadDelay):
			}
		}
		g.Go(func() error {
			results[i] = a.result(ctx, r)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summarize(results)
	a.log.Info("batch complete",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("total", summary.Total()),
	)
	return results
}

func (a *Acquirer) result(ctx context.Context, r Request) types.DownloadResult {
	id := strings.TrimSpace(r.PatentID)
	if id == "" {
		return types.DownloadResult{PatentID: r.PatentID, Status: types.DownloadFailed, Error: "empty patent id"}
	}
	if err := ctx.Err(); err != nil {
		return types.DownloadResult{PatentID: id, Status: types.DownloadFailed, Error: err.Error()}
	}
	art, err := a.Download(ctx, id, r.URL)
	if err != nil {
		return types.DownloadResult{PatentID: id, Status: types.DownloadFailed, Error: err.Error()}
	}
	return types.DownloadResult{
		PatentID:  id,
		Status:    types.DownloadSuccess,
		FilePath:  art.Location,
		SizeBytes: art.Size(),
	}
}

// Summary counts batch outcomes.
type Summary struct {
	Succeeded int
	Failed    int
}

// Total returns the number of identifiers processed.
func (s Summary) Total() int { return s.Succeeded + s.Failed }

// HasFailures reports whether any identifier failed.
func (s Summary) HasFailures() bool { return s.Failed > 0 }

// Summarize tallies results.
func Summarize(results []types.DownloadResult) Summary {
	var s Summary
	for _, r := range results {
		if r.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// Outcome classifies an acquisition error for metrics and HTTP mapping:
// success, http_status, invalid_content, io, timeout, or transport.
func Outcome(err error) string {
	var (
		statusErr  *HTTPStatusError
		contentErr *InvalidContentError
		ioErr      *IOError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &statusErr):
		return "http_status"
	case errors.As(err, &contentErr):
		return "invalid_content"
	case errors.As(err, &ioErr):
		return "io"
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return "timeout"
	default:
		return "transport"
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
