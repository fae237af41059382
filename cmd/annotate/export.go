// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/annotate/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export annotations from the local database",
	Long: `Export writes the annotations held in the local database, each joined
with its record's title, authors, journal, and year. The local database holds
every annotation of local sessions and, when journaling is on, a copy of
every annotation sent to the spreadsheet.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "yaml", "output format: yaml or json")
	exportCmd.Flags().String("output", "", "output file (default: stdout)")
	exportCmd.Flags().String("record", "", "only annotations of this record id")
	exportCmd.Flags().Bool("all-users", false, "include every user, not only --user")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	recordID, _ := cmd.Flags().GetString("record")
	allUsers, _ := cmd.Flags().GetBool("all-users")

	cfg, err := sessionConfig()
	if err != nil {
		return err
	}
	filter := store.AnnotationFilter{RecordID: recordID}
	if !allUsers {
		filter.UserID = cfg.UserID
	}

	l, err := store.OpenLocal(localConfig())
	if err != nil {
		return err
	}
	defer l.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "yaml":
		err = l.ExportYAML(context.Background(), w, filter)
	case "json":
		err = l.ExportJSON(context.Background(), w, filter)
	default:
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", output)
	}
	return nil
}
