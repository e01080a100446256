// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/patent-scout/internal/acquire"
	"github.com/pdiddy/patent-scout/internal/search"
	"github.com/pdiddy/patent-scout/pkg/types"
)

func TestObjectPrefix(t *testing.T) {
	tests := map[string]string{
		"downloads":    "downloads/",
		"./temp/":      "temp/",
		"/var/patents": "var/patents/",
		".":            "",
		"":             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, objectPrefix(in), in)
	}
}

func TestNewStore_File(t *testing.T) {
	cfg = types.Config{Storage: types.StorageConfig{Backend: types.StorageFile}}
	store, err := newStore("temp", batchPrefix)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("temp", "patent_US1234567B2.pdf"), store.Location("US1234567B2"))

	cfg.Storage.Backend = "ftp"
	_, err = newStore("temp", "")
	assert.Error(t, err)
}

func TestAcquireRequests(t *testing.T) {
	_, err := acquireRequests(nil, "")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "q.yaml")
	resp := search.Response{Patents: []types.PatentRecord{
		{ID: "US1234567B2", PDFURL: "https://example.com/US1234567B2.pdf"},
		{ID: ""},
	}}
	require.NoError(t, search.WriteQueryFile(path, search.Request{Keywords: search.Keywords{"widget"}}, resp))

	got, err := acquireRequests([]string{"EP7654321A1"}, path)
	require.NoError(t, err)
	assert.Equal(t, []acquire.Request{
		{PatentID: "EP7654321A1"},
		{PatentID: "US1234567B2", URL: "https://example.com/US1234567B2.pdf"},
	}, got)
}
