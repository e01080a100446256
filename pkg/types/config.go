// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds every single HTTP request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the search orchestrator.
type SearchConfig struct {
	// MaxResults is the default per-source result cap (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Timeout bounds one whole search request across all sources (default 90s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Sources lists the sources queried when a request asks for "all".
	Sources []string `json:"sources" yaml:"sources" mapstructure:"sources"`
}

// BrowserConfig holds settings for the headless browser that renders result pages.
type BrowserConfig struct {
	// ExecPath points at a Chrome/Chromium binary. Empty means auto-detect.
	ExecPath string `json:"exec_path" yaml:"exec_path" mapstructure:"exec_path"`

	// NavigationTimeout bounds page navigation (default 30s).
	NavigationTimeout time.Duration `json:"navigation_timeout" yaml:"navigation_timeout" mapstructure:"navigation_timeout"`

	// WaitTimeout bounds the wait for result containers (default 10s). On
	// expiry extraction proceeds against whatever DOM exists.
	WaitTimeout time.Duration `json:"wait_timeout" yaml:"wait_timeout" mapstructure:"wait_timeout"`

	// UserAgent overrides the browser user agent.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AcquisitionConfig holds settings for PDF acquisition.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// DownloadsDir receives one <id>.pdf per acquired identifier.
	DownloadsDir string `json:"downloads_dir" yaml:"downloads_dir" mapstructure:"downloads_dir"`

	// TempDir receives batch downloads as patent_<id>.pdf.
	TempDir string `json:"temp_dir" yaml:"temp_dir" mapstructure:"temp_dir"`

	// MaxConcurrent caps in-flight batch downloads (default 1, sequential).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent" mapstructure:"max_concurrent"`

	// DownloadDelay is the pause between consecutive batch download starts.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`

	// MaxBytes caps the accepted PDF payload size (default 50 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes" mapstructure:"max_bytes"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// StorageBackend selects where acquired PDFs are written.
type StorageBackend string

const (
	StorageFile  StorageBackend = "file"
	StorageMinio StorageBackend = "minio"
)

// MinioConfig configures the S3-compatible artifact store.
type MinioConfig struct {
	Endpoint        string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	UseSSL          bool   `json:"use_ssl" yaml:"use_ssl" mapstructure:"use_ssl"`
	Region          string `json:"region" yaml:"region" mapstructure:"region"`
	Bucket          string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
}

// StorageConfig selects and configures the artifact store.
type StorageConfig struct {
	Backend StorageBackend `json:"backend" yaml:"backend" mapstructure:"backend"`
	Minio   MinioConfig    `json:"minio" yaml:"minio" mapstructure:"minio"`
}

// LedgerConfig configures the SQLite download ledger.
type LedgerConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// OutputPaths defaults to ["stderr"].
	OutputPaths []string `json:"output_paths" yaml:"output_paths" mapstructure:"output_paths"`
}

// Config groups all settings for the service and CLI.
type Config struct {
	Server      ServerConfig      `json:"server" yaml:"server" mapstructure:"server"`
	Search      SearchConfig      `json:"search" yaml:"search" mapstructure:"search"`
	Browser     BrowserConfig     `json:"browser" yaml:"browser" mapstructure:"browser"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Storage     StorageConfig     `json:"storage" yaml:"storage" mapstructure:"storage"`
	Ledger      LedgerConfig      `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Log         LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
}
