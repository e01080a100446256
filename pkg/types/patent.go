// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared across the patent-scout
// pipeline: raw per-source field maps, the canonical PatentRecord, download
// outcomes, and configuration.
package types

import (
	"net/url"
	"strings"
)

// Source identifies the web source a record was extracted from.
type Source string

const (
	SourceGoogle Source = "google"
	SourceWIPO   Source = "wipo"
)

// ParseSource maps a case-insensitive source name to a Source. Unknown names
// return the empty Source and false.
func ParseSource(s string) (Source, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "google", "google-patents":
		return SourceGoogle, true
	case "wipo", "patentscope":
		return SourceWIPO, true
	default:
		return "", false
	}
}

// Sentinel values substituted for absent data so consumers never branch on
// presence, only on content.
const (
	UnknownInventor    = "Unknown Inventor"
	NoAbstract         = "No abstract available"
	StatusAvailable    = "available"
	TruncationMarker   = "..."
	AdapterAbstractCap = 300
	RecordAbstractCap  = 600
)

// GooglePatentsBase is the origin used when a record carries no source URL.
var GooglePatentsBase = "https://patents.google.com"

// GooglePatentURL is the canonical Google Patents detail page for id. The id
// is escaped as a single path segment.
func GooglePatentURL(id string) string {
	return GooglePatentsBase + "/patent/" + url.PathEscape(id) + "/en"
}

// PatentRecord is the canonical bibliographic record every source converges
// to. All string fields are always populated (possibly empty) and Inventors
// always holds at least one entry.
type PatentRecord struct {
	ID        string   `json:"id" yaml:"id"`
	Title     string   `json:"title" yaml:"title"`
	Date      string   `json:"date" yaml:"date"`
	Inventors []string `json:"inventors" yaml:"inventors"`
	Applicant string   `json:"applicant" yaml:"applicant"`
	Abstract  string   `json:"abstract" yaml:"abstract"`
	SourceURL string   `json:"sourceUrl" yaml:"source_url"`
	PDFURL    string   `json:"pdfUrl" yaml:"pdf_url"`
	Status    string   `json:"status" yaml:"status"`

	// Source and Rank are optional metadata; Rank is the 1-based position
	// within the record's own result set.
	Source Source `json:"source,omitempty" yaml:"source,omitempty"`
	Rank   int    `json:"rank,omitempty" yaml:"rank,omitempty"`
}

// Raw converts the record back into a RawFieldMap so it can be fed through
// normalization again.
func (p PatentRecord) Raw() RawFieldMap {
	raw := RawFieldMap{
		FieldID:        Str(p.ID),
		FieldTitle:     Str(p.Title),
		FieldDate:      Str(p.Date),
		FieldInventors: List(p.Inventors...),
		FieldApplicant: Str(p.Applicant),
		FieldAbstract:  Str(p.Abstract),
		FieldSourceURL: Str(p.SourceURL),
		FieldPDFURL:    Str(p.PDFURL),
		FieldStatus:    Str(p.Status),
	}
	if p.Source != "" {
		raw[FieldSource] = Str(string(p.Source))
	}
	if p.Rank > 0 {
		raw.SetInt(FieldRank, p.Rank)
	}
	return raw
}

// DownloadStatus is the outcome of one PDF acquisition.
type DownloadStatus string

const (
	DownloadSuccess DownloadStatus = "success"
	DownloadFailed  DownloadStatus = "failed"
)

// DownloadResult records the outcome of acquiring one identifier. Exactly one
// of FilePath or Error is set.
type DownloadResult struct {
	PatentID  string         `json:"patentId" yaml:"patent_id"`
	Status    DownloadStatus `json:"status" yaml:"status"`
	FilePath  string         `json:"filePath,omitempty" yaml:"file_path,omitempty"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
	SizeBytes int64          `json:"sizeBytes,omitempty" yaml:"size_bytes,omitempty"`
}

// Succeeded reports whether the download completed.
func (r DownloadResult) Succeeded() bool {
	return r.Status == DownloadSuccess
}
