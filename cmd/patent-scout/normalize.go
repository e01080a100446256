// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/patent-scout/internal/normalize"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Normalize raw field maps into canonical patent records",
	Long: `Normalize reads a JSON array of raw field maps (as produced by the
source adapters or any external scraper) from a file or stdin and writes the
canonical patent records. Values may be strings, numbers, booleans, arrays,
or null.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().String("format", "json", "output format: json, yaml")

	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	var in io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	raws, err := normalize.DecodeJSON(in)
	if err != nil {
		return err
	}
	records := normalize.All(raws)

	switch format {
	case "json":
		return writeJSON(os.Stdout, records)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
