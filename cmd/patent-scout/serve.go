// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/patent-scout/internal/logging"
	"github.com/pdiddy/patent-scout/internal/metrics"
	"github.com/pdiddy/patent-scout/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes search, single and batch PDF download, download history,
logs, and Prometheus metrics over HTTP. Single downloads are stored in the
downloads directory; batch downloads in the temp directory as
patent_<id>.pdf. The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :3000)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	m := metrics.New()

	single, err := newAcquirer(cfg.Acquisition.DownloadsDir, "", m)
	if err != nil {
		return err
	}
	batch, err := newAcquirer(cfg.Acquisition.TempDir, batchPrefix, m)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Search:   newSearchService(m),
		Download: single,
		Batch:    batch,
		Metrics:  m,
		LogFile:  logging.LogFile(cfg.Log),
	}

	l, err := openLedger()
	if err != nil {
		return err
	}
	if l != nil {
		defer l.Close()
		deps.Ledger = l
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(deps, logger).ListenAndServe(ctx, cfg.Server)
}
