// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Base URL for identifier resolution. Declared as a var so tests can
// substitute an httptest server.
var googlePatentsHTMLBase = "https://patents.google.com/patent/"

// unsafeChars matches anything that should not appear in a filename or
// object key.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Slug turns an identifier into a deterministic filename stem. Slashes and
// other unsafe characters become underscores ("WO2021/123456" becomes
// "WO2021_123456"). An identifier with no safe characters at all is
// replaced by a short hash so it still maps to exactly one file.
func Slug(id string) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(strings.TrimSpace(id), "_"), "_.")
	if s != "" {
		return s
	}
	sum := sha256.Sum256([]byte(id))
	return fmt.Sprintf("id-%x", sum[:6])
}

// DetailURL is the Google Patents page used when a caller supplies only an
// identifier. The page doubles as the Referer of PDF requests. The id is
// escaped as a single path segment.
func DetailURL(id string) string {
	return googlePatentsHTMLBase + url.PathEscape(strings.TrimSpace(id))
}
