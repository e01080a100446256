// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore persists validated PDFs. Writing the same identifier twice
// replaces the earlier artifact, so each identifier maps to at most one
// stored file.
type ArtifactStore interface {
	// Put stores data for id and returns where it landed.
	Put(ctx context.Context, id string, data []byte) (string, error)

	// Location reports where Put would store id, without writing.
	Location(id string) string
}

// FileStore writes artifacts as <Dir>/<Prefix><slug>.pdf.
type FileStore struct {
	Dir    string
	Prefix string
}

// Location returns the deterministic path for id.
func (s FileStore) Location(id string) string {
	return filepath.Join(s.Dir, s.Prefix+Slug(id)+".pdf")
}

// Put creates Dir when needed, writes data to a temporary file, and renames
// it into place so readers never observe a partial PDF.
func (s FileStore) Put(_ context.Context, id string, data []byte) (string, error) {
	dest := s.Location(id)
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", &IOError{Path: s.Dir, Err: fmt.Errorf("creating directory: %w", err)}
	}

	tmpFile, err := os.CreateTemp(s.Dir, ".acquire-*.tmp")
	if err != nil {
		return "", &IOError{Path: dest, Err: fmt.Errorf("creating temp file: %w", err)}
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", &IOError{Path: dest, Err: writeErr}
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", &IOError{Path: dest, Err: fmt.Errorf("closing temp file: %w", closeErr)}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", &IOError{Path: dest, Err: fmt.Errorf("renaming temp file: %w", err)}
	}
	return dest, nil
}
