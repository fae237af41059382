// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/annotate/internal/display"
	"github.com/pdiddy/annotate/internal/queue"
	"github.com/pdiddy/annotate/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a user's progress through the record queue",
	Long: `Status loads the record list and the user's stored progress and prints
how many records are annotated, how many remain, and the next record.
Nothing is written.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

type statusReport struct {
	UserID   string              `json:"user_id"`
	Mode     types.ProgressMode  `json:"mode"`
	Stats    types.Stats         `json:"stats"`
	Progress types.ProgressState `json:"progress"`
	Next     *types.Record       `json:"next,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := sessionConfig()
	if err != nil {
		return err
	}
	if cfg.UserID == "" {
		return fmt.Errorf("a user id is required: pass --user or set session.user_id")
	}

	st, err := openStores(cfg.Mode, os.Stderr)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := queue.Open(context.Background(), st.session, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer sess.Close()

	e := queue.NewEngine(sess, nil)
	report := statusReport{
		UserID:   cfg.UserID,
		Mode:     sess.Mode(),
		Stats:    e.Stats(),
		Progress: sess.Progress(),
	}
	if rec, ok := e.Next(); ok {
		report.Next = &rec
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	writeStatus(os.Stdout, report)
	return nil
}

func writeStatus(w io.Writer, r statusReport) {
	fmt.Fprintf(w, "user:      %s (%s mode)\n", r.UserID, r.Mode)
	fmt.Fprintf(w, "progress:  %s\n", display.ProgressLine(r.Stats))
	fmt.Fprintf(w, "remaining: %d\n", r.Stats.Remaining)
	if r.Next == nil {
		fmt.Fprintln(w, "next:      (queue complete)")
		return
	}
	fmt.Fprintf(w, "next:      %s  %s\n", r.Next.ID, r.Next.Title)
}
