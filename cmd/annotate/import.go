// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/annotate/internal/store"
	"github.com/pdiddy/annotate/pkg/types"
)

var importCmd = &cobra.Command{
	Use:   "import [records.yaml]",
	Short: "Load records into the local database",
	Long: `Import stores records in the local SQLite database, from a YAML file or,
with --from-sheet, from the configured spreadsheet. Records already present
are updated in place and keep their queue position; new records are appended.
Use --replace to discard the existing record list first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("replace", false, "replace the existing record list")
	importCmd.Flags().Bool("from-sheet", false, "read records from the spreadsheet instead of a file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	fromSheet, _ := cmd.Flags().GetBool("from-sheet")
	replace, _ := cmd.Flags().GetBool("replace")

	var (
		recs []types.Record
		err  error
	)
	switch {
	case fromSheet && len(args) > 0:
		return fmt.Errorf("give either a file or --from-sheet, not both")
	case fromSheet:
		remote := store.NewRemote(httpClient(), sheetsConfig(), relayConfig(), types.ModeCursor, os.Stderr)
		recs, err = remote.FetchRecords(context.Background())
	case len(args) == 1:
		recs, err = store.LoadRecordsFile(args[0])
	default:
		return fmt.Errorf("a records file or --from-sheet is required")
	}
	if err != nil {
		return err
	}

	l, err := store.OpenLocal(localConfig())
	if err != nil {
		return err
	}
	defer l.Close()

	sum, err := l.ImportRecords(context.Background(), recs, replace)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "added: %d, updated: %d (%s)\n", sum.Added, sum.Updated, l.Path())
	return nil
}
