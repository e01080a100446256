// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render drives headless Chrome to load search result pages and
// hands the final DOM to the extractors as a dom.Document.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-scout/internal/dom"
	"github.com/pdiddy/patent-scout/pkg/types"
)

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultWaitTimeout       = 10 * time.Second
	captureTimeout           = 10 * time.Second
	acceptLanguage           = "en-US,en;q=0.9"
)

// DefaultUserAgent is the desktop Chrome agent presented to result pages.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrNoInput is returned when none of a form's input selectors exist.
var ErrNoInput = errors.New("no search input found")

// Form describes a query box to fill before results appear.
type Form struct {
	// InputSelectors are tried in order; the first present element gets Text.
	InputSelectors []string
	Text           string
}

// Page is one rendering job.
type Page struct {
	URL string

	// WaitSelector is awaited after navigation (and after Form, if set).
	// An expired wait is logged and the current DOM is captured anyway.
	WaitSelector string
	WaitTimeout  time.Duration

	Form *Form
}

// Renderer loads a page and returns its DOM.
type Renderer interface {
	Render(ctx context.Context, p Page) (dom.Document, error)
}

// ChromeRenderer launches a fresh headless browser per page.
type ChromeRenderer struct {
	cfg        types.BrowserConfig
	chromePath string
	log        *zap.Logger
}

// NewChromeRenderer builds a renderer. An empty ExecPath is auto-detected
// from common install locations, falling back to chromedp's own lookup.
func NewChromeRenderer(cfg types.BrowserConfig, log *zap.Logger) *ChromeRenderer {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = defaultWaitTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if log == nil {
		log = zap.NewNop()
	}
	path := cfg.ExecPath
	if path == "" {
		path = detectChromePath()
	}
	return &ChromeRenderer{cfg: cfg, chromePath: path, log: log.Named("render")}
}

func (r *ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(r.cfg.UserAgent),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	return opts
}

// Render navigates to p.URL, optionally submits p.Form, waits for
// p.WaitSelector, and parses the resulting DOM with the final page URL as
// its base. Navigation failures are errors; an expired wait is not.
func (r *ChromeRenderer) Render(ctx context.Context, p Page) (dom.Document, error) {
	waitTimeout := p.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = r.cfg.WaitTimeout
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	// The first Run starts the browser; it must not carry a step timeout or
	// the browser would exit when that step's context ends.
	if err := chromedp.Run(taskCtx); err != nil {
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	start := time.Now()
	if err := r.navigate(taskCtx, p.URL); err != nil {
		return nil, err
	}

	if p.Form != nil {
		if err := r.submit(taskCtx, *p.Form, waitTimeout); err != nil {
			return nil, err
		}
	}

	if p.WaitSelector != "" {
		r.wait(taskCtx, p.WaitSelector, waitTimeout)
	}

	doc, err := r.capture(taskCtx)
	if err != nil {
		return nil, err
	}
	r.log.Debug("rendered page",
		zap.String("url", p.URL),
		zap.String("final_url", doc.URL()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return doc, nil
}

func (r *ChromeRenderer) navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, r.cfg.NavigationTimeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": acceptLanguage}),
		chromedp.Navigate(url),
	)
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (r *ChromeRenderer) submit(ctx context.Context, f Form, timeout time.Duration) error {
	formCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(formCtx, chromedp.WaitReady(strings.Join(f.InputSelectors, ", "), chromedp.ByQuery)); err != nil {
		return fmt.Errorf("waiting for search input: %w", ErrNoInput)
	}

	for _, sel := range f.InputSelectors {
		var nodes []*cdp.Node
		if err := chromedp.Run(formCtx, chromedp.Nodes(sel, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
			return fmt.Errorf("querying %s: %w", sel, err)
		}
		if len(nodes) == 0 {
			continue
		}
		r.log.Debug("submitting form", zap.String("input", sel))
		err := chromedp.Run(formCtx,
			chromedp.Focus(sel, chromedp.ByQuery),
			chromedp.SetValue(sel, "", chromedp.ByQuery),
			chromedp.SendKeys(sel, f.Text+kb.Enter, chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("typing into %s: %w", sel, err)
		}
		return nil
	}
	return ErrNoInput
}

func (r *ChromeRenderer) wait(ctx context.Context, selector string, timeout time.Duration) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		r.log.Warn("result wait expired, extracting current page",
			zap.String("selector", selector),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
	}
}

func (r *ChromeRenderer) capture(ctx context.Context) (dom.Document, error) {
	capCtx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	var html, location string
	if err := chromedp.Run(capCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("capturing page: %w", err)
	}
	return dom.FromHTML(html, location)
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
