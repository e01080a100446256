// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-scout/internal/acquire"
	"github.com/pdiddy/patent-scout/internal/search"
	"github.com/pdiddy/patent-scout/pkg/types"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire [patent-ids...]",
	Short: "Download patent PDFs",
	Long: `Acquire downloads the PDF for each patent identifier, validates the
%PDF signature, and stores it as <id>.pdf in the downloads directory.
Identifiers come from the arguments or, with --from, from a query file
saved by "patent-scout search --save" (using each record's PDF URL).

Every identifier gets its own outcome; one failure never stops the rest.
The outcomes are recorded in the download ledger.`,
	RunE: runAcquire,
}

func init() {
	acquireCmd.Flags().String("from", "", "query file written by search --save")
	acquireCmd.Flags().String("dir", "", "output directory (default from config: downloads)")
	acquireCmd.Flags().Bool("json", false, "print results as JSON")

	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	dir, _ := cmd.Flags().GetString("dir")
	asJSON, _ := cmd.Flags().GetBool("json")

	reqs, err := acquireRequests(args, from)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.Acquisition.DownloadsDir
	}

	acq, err := newAcquirer(dir, "", nil)
	if err != nil {
		return err
	}
	ctx := context.Background()
	results := acq.AcquireRequests(ctx, reqs)

	if err := recordBatch(ctx, results); err != nil {
		logger.Error("recording batch", zap.Error(err))
	}

	if asJSON {
		if err := writeJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		printResults(results)
	}

	if summary := acquire.Summarize(results); summary.HasFailures() {
		return fmt.Errorf("%d of %d patent(s) failed acquisition", summary.Failed, summary.Total())
	}
	return nil
}

func acquireRequests(args []string, from string) ([]acquire.Request, error) {
	var reqs []acquire.Request
	for _, id := range args {
		reqs = append(reqs, acquire.Request{PatentID: id})
	}
	if from != "" {
		qf, err := search.ReadQueryFile(from)
		if err != nil {
			return nil, err
		}
		for _, p := range qf.Response.Patents {
			if p.ID == "" {
				continue
			}
			reqs = append(reqs, acquire.Request{PatentID: p.ID, URL: p.PDFURL})
		}
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("provide one or more patent identifiers or --from a query file")
	}
	return reqs, nil
}

func recordBatch(ctx context.Context, results []types.DownloadResult) error {
	l, err := openLedger()
	if err != nil || l == nil {
		return err
	}
	defer l.Close()
	return l.Record(ctx, uuid.NewString(), "cli", results)
}

func printResults(results []types.DownloadResult) {
	for _, r := range results {
		if r.Succeeded() {
			fmt.Printf("  ok    %-20s %s (%d bytes)\n", r.PatentID, r.FilePath, r.SizeBytes)
		} else {
			fmt.Printf("  FAIL  %-20s %s\n", r.PatentID, r.Error)
		}
	}
	s := acquire.Summarize(results)
	fmt.Printf("\n%d succeeded, %d failed\n", s.Succeeded, s.Failed)
}
