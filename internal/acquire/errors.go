// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import "fmt"

// DownloadError reports a failed acquisition. Err is one of
// *HTTPStatusError, *InvalidContentError, *IOError, or the transport error
// when no response arrived.
type DownloadError struct {
	PatentID string
	URL      string
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s from %s: %v", e.PatentID, e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-200 response from the PDF host.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// InvalidContentError means the payload does not start with the PDF
// signature. Nothing is written when it occurs.
type InvalidContentError struct {
	// Prefix holds up to the first 16 bytes received.
	Prefix []byte
	// Reason is set when the payload was rejected for something other
	// than its signature, such as size.
	Reason string
}

func (e *InvalidContentError) Error() string {
	if e.Reason != "" {
		return "payload rejected: " + e.Reason
	}
	return fmt.Sprintf("payload is not a PDF (starts with %q)", e.Prefix)
}

// IOError is a failure writing the artifact to its destination.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
