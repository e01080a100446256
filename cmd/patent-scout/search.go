// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-scout/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [keywords...]",
	Short: "Search Google Patents and WIPO for matching patents",
	Long: `Search renders the result pages of the selected sources in headless
Chrome, extracts patent records, and normalizes them. Each argument is one
keyword clause. With --source all (the default) both sources are queried
concurrently and a failing source is reported as a warning.

Use --save to write the request and results to a YAML query file that
"patent-scout acquire --from" can read later.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("source", search.SourceAll, "source to query: all, google, wipo")
	searchCmd.Flags().Int("max-results", 0, "maximum results per source (default from config, capped at 100)")
	searchCmd.Flags().String("format", "table", "output format: table, json, yaml")
	searchCmd.Flags().String("save", "", "write the query and results to this YAML file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	format, _ := cmd.Flags().GetString("format")
	savePath, _ := cmd.Flags().GetString("save")

	req := search.Request{
		Keywords:   search.Keywords(args),
		MaxResults: maxResults,
		Source:     source,
	}

	svc := newSearchService(nil)
	resp, err := svc.Search(context.Background(), req)
	if err != nil {
		return err
	}

	if savePath != "" {
		if err := search.WriteQueryFile(savePath, req, resp); err != nil {
			return err
		}
		logger.Info("saved query", zap.String("path", savePath), zap.Int("patents", resp.Total))
	}

	switch format {
	case "table":
		search.FormatTable(resp, os.Stdout)
		return nil
	case "json":
		return search.FormatJSON(resp, os.Stdout)
	case "yaml":
		return search.FormatYAML(resp, os.Stdout)
	default:
		return fmt.Errorf("unknown format %q (want table, json, or yaml)", format)
	}
}
