// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize collapses raw, source-specific field maps into the
// canonical PatentRecord. Record is pure and total: any input, including an
// empty map, yields a fully populated record, and normalizing a record a
// second time changes nothing.
package normalize

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/patent-scout/internal/textnorm"
	"github.com/pdiddy/patent-scout/pkg/types"
)

// Record builds a canonical record from raw.
func Record(raw types.RawFieldMap) types.PatentRecord {
	id := Identifier(raw.Get(types.FieldID))
	sourceURL := textnorm.CleanText(raw.First(types.FieldSourceURL, types.FieldGoogleURL, types.FieldDetailURL))
	if sourceURL == "" && id != "" {
		sourceURL = types.GooglePatentURL(id)
	}
	pdfURL := textnorm.CleanText(raw.Get(types.FieldPDFURL))
	if pdfURL == "" && sourceURL != "" && id != "" {
		pdfURL = withQuery(sourceURL, "oq", id)
	}

	rec := types.PatentRecord{
		ID:        id,
		Title:     Title(raw.Get(types.FieldTitle), id),
		Date:      textnorm.NormalizeDate(raw.Get(types.FieldDate)),
		Inventors: Inventors(inventorsValue(raw)),
		Applicant: textnorm.CleanText(raw.First(types.FieldApplicant, types.FieldAssignee)),
		Abstract:  Abstract(raw.Get(types.FieldAbstract)),
		SourceURL: sourceURL,
		PDFURL:    pdfURL,
		Status:    types.StatusAvailable,
	}
	if src, ok := types.ParseSource(raw.Get(types.FieldSource)); ok {
		rec.Source = src
	}
	if n, err := strconv.Atoi(textnorm.CleanText(raw.Get(types.FieldRank))); err == nil && n > 0 {
		rec.Rank = n
	}
	return rec
}

// All normalizes every raw map, preserving order.
func All(raws []types.RawFieldMap) []types.PatentRecord {
	out := make([]types.PatentRecord, len(raws))
	for i, raw := range raws {
		out[i] = Record(raw)
	}
	return out
}

// Identifier uppercases a raw identifier and narrows it to the embedded
// patent number when one is recognized.
func Identifier(s string) string {
	id := strings.ToUpper(textnorm.CleanText(s))
	if narrowed := textnorm.ExtractIdentifier(id); narrowed != "" {
		return narrowed
	}
	return id
}

// Title strips leading copies of id and blanks titles that are only an
// identifier.
func Title(s, id string) string {
	title := textnorm.StripLeadingID(s, id)
	if title == "" || (id != "" && strings.EqualFold(title, id)) || textnorm.IsBareIdentifier(title) {
		return ""
	}
	return title
}

func inventorsValue(raw types.RawFieldMap) types.FieldValue {
	if v, ok := raw[types.FieldInventors]; ok && len(v.Items()) > 0 {
		return v
	}
	return raw[types.FieldInventor]
}

// Inventors cleans each entry and drops empty and purely numeric tokens. A
// scalar value is split on semicolons. The result is never empty.
func Inventors(v types.FieldValue) []string {
	entries := v.Items()
	if !v.IsList() && len(entries) == 1 {
		entries = strings.Split(entries[0], ";")
	}
	var out []string
	for _, e := range entries {
		name := textnorm.CleanText(e)
		if name == "" || textnorm.IsNumeric(name) {
			continue
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return []string{types.UnknownInventor}
	}
	return out
}

// Abstract cleans and caps an abstract, substituting the sentinel when empty.
func Abstract(s string) string {
	s = textnorm.CleanText(s)
	if s == "" {
		return types.NoAbstract
	}
	return textnorm.Truncate(s, types.RecordAbstractCap)
}

func withQuery(rawURL, key, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + key + "=" + url.QueryEscape(value)
}

// DecodeJSON reads either one JSON object or an array of objects into raw
// field maps.
func DecodeJSON(r io.Reader) ([]types.RawFieldMap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading raw records: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var raws []types.RawFieldMap
		if err := json.Unmarshal([]byte(trimmed), &raws); err != nil {
			return nil, fmt.Errorf("decoding raw records: %w", err)
		}
		return raws, nil
	}
	var raw types.RawFieldMap
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, fmt.Errorf("decoding raw record: %w", err)
	}
	return []types.RawFieldMap{raw}, nil
}
