// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/patent-scout/pkg/types"
)

func TestNewChromeRenderer_Defaults(t *testing.T) {
	r := NewChromeRenderer(types.BrowserConfig{ExecPath: "/opt/chrome"}, nil)
	assert.Equal(t, defaultNavigationTimeout, r.cfg.NavigationTimeout)
	assert.Equal(t, defaultWaitTimeout, r.cfg.WaitTimeout)
	assert.Equal(t, DefaultUserAgent, r.cfg.UserAgent)
	assert.Equal(t, "/opt/chrome", r.chromePath)

	withPath := len(r.allocatorOptions())
	r.chromePath = ""
	assert.Equal(t, withPath-1, len(r.allocatorOptions()))
}

func requireChrome(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	path := detectChromePath()
	if path == "" {
		t.Skip("no Chrome or Chromium binary found")
	}
	return path
}

const resultsPage = `<html><body>
<script>
setTimeout(function () {
  var el = document.createElement("search-result-item");
  el.innerHTML = '<a href="/patent/US1234567B2/en">Widget clamp</a>';
  document.body.appendChild(el);
}, 50);
</script>
</body></html>`

func TestChromeRenderer_Render(t *testing.T) {
	path := requireChrome(t)

	var (
		mu         sync.Mutex
		acceptLang string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		acceptLang = r.Header.Get("Accept-Language")
		mu.Unlock()
		io.WriteString(w, resultsPage)
	}))
	defer ts.Close()

	r := NewChromeRenderer(types.BrowserConfig{ExecPath: path}, zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	doc, err := r.Render(ctx, Page{URL: ts.URL + "/?q=widget", WaitSelector: "search-result-item", WaitTimeout: 5 * time.Second})
	require.NoError(t, err)

	items := doc.Find("search-result-item a")
	require.Len(t, items, 1)
	href, _ := items[0].Attr("href")
	assert.Equal(t, ts.URL+"/patent/US1234567B2/en", href)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, acceptLanguage, acceptLang)
}

func TestChromeRenderer_WaitExpiryStillCaptures(t *testing.T) {
	path := requireChrome(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><p>No results</p></body></html>`)
	}))
	defer ts.Close()

	r := NewChromeRenderer(types.BrowserConfig{ExecPath: path}, zaptest.NewLogger(t))
	doc, err := r.Render(context.Background(), Page{URL: ts.URL, WaitSelector: "tbody tr", WaitTimeout: 200 * time.Millisecond})
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "No results")
}

func TestChromeRenderer_Form(t *testing.T) {
	path := requireChrome(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("query"); q != "" {
			io.WriteString(w, `<html><body><table><tbody><tr><td>`+q+`</td></tr></tbody></table></body></html>`)
			return
		}
		io.WriteString(w, `<html><body><form action="/results"><textarea name="query"></textarea></form>
<script>
document.querySelector("textarea").addEventListener("keydown", function (e) {
  if (e.key === "Enter") { e.preventDefault(); this.form.submit(); }
});
</script></body></html>`)
	}))
	defer ts.Close()

	r := NewChromeRenderer(types.BrowserConfig{ExecPath: path}, zaptest.NewLogger(t))
	doc, err := r.Render(context.Background(), Page{
		URL:          ts.URL,
		Form:         &Form{InputSelectors: []string{"textarea#missing", "textarea"}, Text: "widget"},
		WaitSelector: "tbody tr",
		WaitTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	rows := doc.Find("tbody tr td")
	require.Len(t, rows, 1)
	assert.Equal(t, "widget", rows[0].Text())
}
