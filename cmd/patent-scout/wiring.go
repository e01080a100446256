// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/patent-scout/internal/acquire"
	"github.com/pdiddy/patent-scout/internal/ledger"
	"github.com/pdiddy/patent-scout/internal/metrics"
	"github.com/pdiddy/patent-scout/internal/render"
	"github.com/pdiddy/patent-scout/internal/search"
	"github.com/pdiddy/patent-scout/pkg/types"
)

// batchPrefix names batch downloads patent_<id>.pdf.
const batchPrefix = "patent_"

// newStore returns the configured artifact store. For the file backend,
// artifacts go under dir; for MinIO, dir becomes the key prefix.
func newStore(dir, prefix string) (acquire.ArtifactStore, error) {
	switch cfg.Storage.Backend {
	case types.StorageMinio:
		client, err := acquire.NewMinioClient(cfg.Storage.Minio)
		if err != nil {
			return nil, err
		}
		return acquire.NewMinioStore(client, cfg.Storage.Minio, objectPrefix(dir)+prefix, logger), nil
	case types.StorageFile, "":
		return acquire.FileStore{Dir: dir, Prefix: prefix}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// objectPrefix turns a local directory setting into an object key prefix.
func objectPrefix(dir string) string {
	p := strings.Trim(path.Clean(filepath.ToSlash(dir)), "/")
	if p == "" || p == "." {
		return ""
	}
	return p + "/"
}

// newAcquirer builds an acquirer writing to dir with the given filename
// prefix.
func newAcquirer(dir, prefix string, m *metrics.Metrics) (*acquire.Acquirer, error) {
	store, err := newStore(dir, prefix)
	if err != nil {
		return nil, err
	}
	return acquire.New(nil, store, cfg.Acquisition, logger, acquire.WithMetrics(m)), nil
}

func newSearchService(m *metrics.Metrics) *search.Service {
	r := render.NewChromeRenderer(cfg.Browser, logger)
	return search.NewService(r, cfg.Search, logger, search.WithMetrics(m))
}

// openLedger returns nil when the ledger is disabled.
func openLedger() (*ledger.Store, error) {
	if !cfg.Ledger.Enabled {
		return nil, nil
	}
	return ledger.Open(cfg.Ledger.Path)
}
