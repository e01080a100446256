// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textnorm provides the pure string normalizers used by extraction
// and record normalization: whitespace cleanup, patent identifier
// recognition, date canonicalization, and rune-safe truncation.
//
// Every function is total. Unrecognized input yields the empty string rather
// than an error, and each function is idempotent on its own output.
package textnorm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// CleanText collapses runs of whitespace, including non-breaking spaces, into
// single spaces and trims both ends.
func CleanText(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\u200b' || r == '\ufeff'
}

// identifierPatterns are ordered most specific first so a looser pattern
// never captures a substring of a longer identifier. Group 1 is the number;
// any later group is a kind code, kept only when no letter follows it so
// that text glued onto an identifier ("US20170364492WEB") is not absorbed.
var identifierPatterns = []struct {
	re     *regexp.Regexp
	prefix string
}{
	{re: regexp.MustCompile(`\b([A-Z]{2}\d{8,})([A-Z]\d?)?`)},
	{re: regexp.MustCompile(`\bWO[/\s]?(\d{4}/\d+)`), prefix: "WO"},
	{re: regexp.MustCompile(`\b(\d{4}/\d+)`)},
	{re: regexp.MustCompile(`\b([A-Z]{2}\s?\d{6,})(?:([A-Z]\d?)|\s([A-Z]\d))?`)},
}

// ExtractIdentifier returns the first patent identifier found in s with its
// internal whitespace removed, or "" when nothing matches. WO numbers are
// returned in the WO2021/123456 form whatever their separator.
func ExtractIdentifier(s string) string {
	for _, p := range identifierPatterns {
		m := p.re.FindStringSubmatchIndex(s)
		if m == nil {
			continue
		}
		id := p.prefix + s[m[2]:m[3]]
		for g := 4; g+1 < len(m); g += 2 {
			start, end := m[g], m[g+1]
			if start < 0 {
				continue
			}
			if !letterAt(s, end) {
				id += s[start:end]
			}
			break
		}
		return strings.Join(strings.Fields(id), "")
	}
	return ""
}

func letterAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r)
}

var bareIdentifier = regexp.MustCompile(`^[A-Z]{2}\d+[A-Z]?\d*$`)

// IsBareIdentifier reports whether s consists solely of an identifier-shaped
// token such as "US1234567B2".
func IsBareIdentifier(s string) bool {
	return bareIdentifier.MatchString(strings.TrimSpace(s))
}

// IsNumeric reports whether s is a non-empty run of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

type datePattern struct {
	re *regexp.Regexp
	// y, m, d are submatch indexes; m and d are 0 for a bare year.
	y, m, d int
}

var datePatterns = []datePattern{
	{regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`), 1, 2, 3},
	{regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`), 3, 1, 2},
	{regexp.MustCompile(`\b(\d{4})/(\d{1,2})/(\d{1,2})\b`), 1, 2, 3},
	{regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`), 3, 2, 1},
	{regexp.MustCompile(`\b([12]\d{3})\b`), 1, 0, 0},
}

// NormalizeDate finds the first recognizable date in s and renders it as
// YYYY-MM-DD. Recognized forms are ISO, US (MM/DD/YYYY), YYYY/MM/DD,
// European (DD.MM.YYYY), and a bare four-digit year, which maps to January 1.
// Dates that do not exist on the calendar yield "".
func NormalizeDate(s string) string {
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[p.y])
		month, day := 1, 1
		if p.m > 0 {
			month, _ = strconv.Atoi(m[p.m])
			day, _ = strconv.Atoi(m[p.d])
		}
		if !validDate(year, month, day) {
			return ""
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	}
	return ""
}

func validDate(year, month, day int) bool {
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

// Truncate shortens s to at most max runes followed by "...". A string that
// already fits is returned unchanged, as is a previously truncated value, so
// Truncate(Truncate(s, n), n) == Truncate(s, n).
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := utf8.RuneCountInString(s)
	if n <= max {
		return s
	}
	if strings.HasSuffix(s, marker) && n <= max+len(marker) {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + marker
}

const marker = "..."

const titleSeparators = "-–—:"

// StripLeadingID removes every leading copy of id from title, together with
// the spaces and separators (-, –, —, :) that follow each copy. A copy is
// only removed when it ends at a word boundary. Matching ignores case.
func StripLeadingID(title, id string) string {
	title = CleanText(title)
	id = CleanText(id)
	if id == "" {
		return title
	}
	for len(title) >= len(id) && strings.EqualFold(title[:len(id)], id) {
		rest := title[len(id):]
		if rest != "" {
			r, _ := utf8.DecodeRuneInString(rest)
			if r != ' ' && !strings.ContainsRune(titleSeparators, r) {
				break
			}
		}
		title = strings.TrimLeft(rest, " "+titleSeparators)
	}
	return title
}
