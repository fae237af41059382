// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/annotate/internal/display"
	"github.com/pdiddy/annotate/internal/netid"
	"github.com/pdiddy/annotate/internal/prompt"
	"github.com/pdiddy/annotate/internal/queue"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive annotation session",
	Long: `Run signs the user in, loads the record list and the user's progress,
and shows the first unreviewed record. Judgments are saved in the background
while the next record is already on screen.

Type ? during a session for the list of commands.`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().Bool("wrap", false, "scan mode: resume from the last position and wrap around")
	runCmd.Flags().Bool("no-journal", false, "do not copy annotations to the local database")
	viper.BindPFlag("session.wrap", runCmd.Flags().Lookup("wrap"))

	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := sessionConfig()
	if err != nil {
		return err
	}
	if cfg.UserID == "" {
		return fmt.Errorf("a user id is required: pass --user or set session.user_id")
	}
	if noJournal, _ := cmd.Flags().GetBool("no-journal"); noJournal {
		viper.Set("journal", false)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg.Mode, os.Stderr)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := queue.Open(ctx, st.session, cfg, os.Stderr)
	if err != nil {
		if errors.Is(err, queue.ErrNoRecords) {
			return fmt.Errorf("there are no records to annotate")
		}
		return fmt.Errorf("could not load records, check the spreadsheet settings: %w", err)
	}

	var lookup func(context.Context) string
	if cfg.IPLookupURL != "" {
		lookup = netid.Resolver(httpClient(), cfg.IPLookupURL)
	}
	sub := queue.NewSubmitter(st.session, queue.SubmitterConfig{
		UserID:   cfg.UserID,
		Journal:  st.journal,
		LookupIP: lookup,
		Timeout:  httpConfig().Timeout,
		Log:      os.Stderr,
	})
	ctrl := queue.NewController(sess, display.NewTerminal(os.Stdout), sub)

	fmt.Fprintf(os.Stdout, "Signed in as %s (%s mode). Type ? for help.\n", cfg.UserID, sess.Mode())
	sum, loopErr := prompt.Loop(ctx, ctrl, os.Stdin, os.Stdout)

	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.FlushTimeout)
	defer cancel()
	pre := ctrl.Preloader()
	fmt.Fprintf(os.Stdout, "\nsaved: %d, skipped: %d, instant: %d, loaded: %d\n",
		sum.Saved, sum.Skipped, pre.Swaps, pre.ColdLoads)
	ctrl.SignOut(flushCtx)

	return loopErr
}
