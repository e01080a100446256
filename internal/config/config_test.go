// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/patent-scout/pkg/types"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	Configure(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 90*time.Second, cfg.Search.Timeout)
	assert.Equal(t, []string{"google", "wipo"}, cfg.Search.Sources)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 10*time.Second, cfg.Browser.WaitTimeout)
	assert.Equal(t, 60*time.Second, cfg.Acquisition.Timeout)
	assert.Equal(t, "downloads", cfg.Acquisition.DownloadsDir)
	assert.Equal(t, "temp", cfg.Acquisition.TempDir)
	assert.Equal(t, 1, cfg.Acquisition.MaxConcurrent)
	assert.Equal(t, int64(50<<20), cfg.Acquisition.MaxBytes)
	assert.Equal(t, types.StorageFile, cfg.Storage.Backend)
	assert.True(t, cfg.Ledger.Enabled)
	assert.Equal(t, "data/patent-scout.db", cfg.Ledger.Path)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patent-scout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":8080"
acquisition:
  timeout: 15s
  max_concurrent: 4
  user_agent: scout-test
storage:
  backend: minio
  minio:
    bucket: pdfs
`), 0o644))

	t.Setenv("PATENT_SCOUT_ACQUISITION_MAX_CONCURRENT", "2")
	t.Setenv("PATENT_SCOUT_LOG_LEVEL", "debug")

	v := viper.New()
	Configure(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Acquisition.Timeout)
	assert.Equal(t, "scout-test", cfg.Acquisition.UserAgent)
	assert.Equal(t, 2, cfg.Acquisition.MaxConcurrent, "environment overrides the file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, types.StorageMinio, cfg.Storage.Backend)
	assert.Equal(t, "pdfs", cfg.Storage.Minio.Bucket)
	assert.Equal(t, "localhost:9000", cfg.Storage.Minio.Endpoint)
}

func TestValidate(t *testing.T) {
	v := viper.New()
	Configure(v)
	base, err := Load(v)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*types.Config)
		want   string
	}{
		{"unknown source", func(c *types.Config) { c.Search.Sources = []string{"espacenet"} }, `unknown source "espacenet"`},
		{"negative concurrency", func(c *types.Config) { c.Acquisition.MaxConcurrent = -1 }, "max_concurrent"},
		{"unknown backend", func(c *types.Config) { c.Storage.Backend = "s3" }, `unknown backend "s3"`},
		{"minio without bucket", func(c *types.Config) {
			c.Storage.Backend = types.StorageMinio
			c.Storage.Minio.Bucket = ""
		}, "storage.minio.bucket"},
		{"ledger without path", func(c *types.Config) { c.Ledger.Path = "" }, "ledger.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.Search.Sources = append([]string(nil), base.Search.Sources...)
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplySecrets(t *testing.T) {
	cfg := types.Config{}
	cfg.Storage.Minio.SecretAccessKey = "from-env"
	ApplySecrets(&cfg, map[string]string{
		SecretMinioAccessKey: "key-id",
		SecretMinioSecretKey: "from-file",
	})
	assert.Equal(t, "key-id", cfg.Storage.Minio.AccessKeyID)
	assert.Equal(t, "from-env", cfg.Storage.Minio.SecretAccessKey)
}
