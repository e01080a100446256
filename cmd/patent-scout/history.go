// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/patent-scout/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded PDF acquisitions",
	Long: `History lists entries from the download ledger, newest batch first.
Both API batch downloads and CLI acquisitions are recorded.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("patent", "", "only show this patent identifier")
	historyCmd.Flags().Bool("failed", false, "only show failed acquisitions")
	historyCmd.Flags().Int("limit", 50, "maximum number of entries")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	patent, _ := cmd.Flags().GetString("patent")
	failed, _ := cmd.Flags().GetBool("failed")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	l, err := openLedger()
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("the download ledger is disabled (ledger.enabled=false)")
	}
	defer l.Close()

	entries, err := l.Recent(context.Background(), ledger.Query{PatentID: patent, FailedOnly: failed, Limit: limit})
	if err != nil {
		return err
	}

	if asJSON {
		if entries == nil {
			entries = []ledger.Entry{}
		}
		return writeJSON(os.Stdout, entries)
	}
	if len(entries) == 0 {
		fmt.Println("No downloads recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tORIGIN\tPATENT\tSTATUS\tDETAIL")
	for _, e := range entries {
		detail := e.FilePath
		if !e.Succeeded() {
			detail = e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Origin, e.PatentID, e.Status, detail)
	}
	return tw.Flush()
}
