// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves types.Config from viper: defaults, then the
// config file, then PATENT_SCOUT_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/patent-scout/pkg/types"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// PATENT_SCOUT_ACQUISITION_MAX_CONCURRENT.
const EnvPrefix = "PATENT_SCOUT"

// Secret file names read from the secrets directory.
const (
	SecretMinioAccessKey = "minio-access-key-id"
	SecretMinioSecretKey = "minio-secret-access-key"
)

// SetDefaults registers every default on v. Registering a key also lets
// AutomaticEnv bind it during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)

	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.timeout", 90*time.Second)
	v.SetDefault("search.sources", []string{"google", "wipo"})

	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.wait_timeout", 10*time.Second)
	v.SetDefault("browser.user_agent", "")

	v.SetDefault("acquisition.timeout", 60*time.Second)
	v.SetDefault("acquisition.user_agent", "")
	v.SetDefault("acquisition.downloads_dir", "downloads")
	v.SetDefault("acquisition.temp_dir", "temp")
	v.SetDefault("acquisition.max_concurrent", 1)
	v.SetDefault("acquisition.download_delay", time.Duration(0))
	v.SetDefault("acquisition.max_bytes", int64(50<<20))
	v.SetDefault("acquisition.max_retries", 3)

	v.SetDefault("storage.backend", string(types.StorageFile))
	v.SetDefault("storage.minio.endpoint", "localhost:9000")
	v.SetDefault("storage.minio.access_key_id", "")
	v.SetDefault("storage.minio.secret_access_key", "")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.region", "")
	v.SetDefault("storage.minio.bucket", "patents")

	v.SetDefault("ledger.enabled", true)
	v.SetDefault("ledger.path", "data/patent-scout.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_paths", []string{"stderr"})
}

// Configure applies the env prefix and key replacer to v.
func Configure(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplySecrets fills MinIO credentials left empty by the config file and
// environment from the secrets directory contents.
func ApplySecrets(cfg *types.Config, secrets map[string]string) {
	if cfg.Storage.Minio.AccessKeyID == "" {
		cfg.Storage.Minio.AccessKeyID = secrets[SecretMinioAccessKey]
	}
	if cfg.Storage.Minio.SecretAccessKey == "" {
		cfg.Storage.Minio.SecretAccessKey = secrets[SecretMinioSecretKey]
	}
}

// Validate reports every invalid setting at once.
func Validate(cfg types.Config) error {
	var errs []error
	if cfg.Search.MaxResults < 0 {
		errs = append(errs, fmt.Errorf("search.max_results must not be negative"))
	}
	for _, s := range cfg.Search.Sources {
		if _, ok := types.ParseSource(s); !ok {
			errs = append(errs, fmt.Errorf("search.sources: unknown source %q", s))
		}
	}
	if cfg.Acquisition.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("acquisition.max_concurrent must not be negative"))
	}
	if cfg.Acquisition.DownloadDelay < 0 {
		errs = append(errs, fmt.Errorf("acquisition.download_delay must not be negative"))
	}
	switch cfg.Storage.Backend {
	case types.StorageFile:
		if cfg.Acquisition.DownloadsDir == "" {
			errs = append(errs, fmt.Errorf("acquisition.downloads_dir is required for the file backend"))
		}
	case types.StorageMinio:
		if cfg.Storage.Minio.Endpoint == "" || cfg.Storage.Minio.Bucket == "" {
			errs = append(errs, fmt.Errorf("storage.minio.endpoint and storage.minio.bucket are required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", cfg.Storage.Backend))
	}
	if cfg.Ledger.Enabled && cfg.Ledger.Path == "" {
		errs = append(errs, fmt.Errorf("ledger.path is required when the ledger is enabled"))
	}
	return errors.Join(errs...)
}
