// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the patent-scout CLI.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-scout/internal/config"
	"github.com/pdiddy/patent-scout/internal/logging"
	"github.com/pdiddy/patent-scout/internal/secrets"
	"github.com/pdiddy/patent-scout/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Resolved in PersistentPreRunE before any subcommand runs.
var (
	cfg    types.Config
	logger = zap.NewNop()
)

// rootCmd is the base command for the patent-scout CLI.
var rootCmd = &cobra.Command{
	Use:   "patent-scout",
	Short: "Search patent databases and acquire patent PDFs",
	Long: `patent-scout renders Google Patents and WIPO PATENTSCOPE result pages,
extracts and normalizes patent records, and downloads validated PDFs.

Run "patent-scout serve" for the HTTP API, or use the search, acquire,
normalize, and history subcommands directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		if err := initConfig(cmd); err != nil {
			return err
		}

		v := viper.GetViper()
		config.Configure(v)

		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		logger, err = logging.New(cfg.Log)
		if err != nil {
			return err
		}
		if used := v.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			logger.Debug("loaded secrets", zap.Strings("names", secrets.Names(s)))
		}
		config.ApplySecrets(&cfg, s)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./patent-scout.yaml or ~/.config/patent-scout/patent-scout.yaml)")
	pf.String("secrets-dir", secrets.DefaultDir, "directory of secret files")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")

	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))
}

func initConfig(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("patent-scout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "patent-scout"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// writeJSON writes v as indented JSON to w.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
