// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/annotate/internal/relay"
	"github.com/pdiddy/annotate/internal/store"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Serve the relay protocol on top of the local database",
	Long: `Relay serves the HTTP relay the remote store writes through, backed by
the local SQLite database. Point relay.url of the reviewers' configuration at
this server to run without the spreadsheet script.

Cursor mode stores progress through the relay, so it needs this server or a
script that handles the "action" field. Scan mode with a spreadsheet reads
progress from the annotations sheet and sends only annotations.`,
	RunE: runRelay,
}

func init() {
	relayCmd.Flags().String("addr", "", "listen address (default: 127.0.0.1:8080)")
	viper.BindPFlag("relay.addr", relayCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(relayCmd)
}

func runRelay(cmd *cobra.Command, args []string) error {
	l, err := store.OpenLocal(localConfig())
	if err != nil {
		return err
	}
	defer l.Close()

	addr := viper.GetString("relay.addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           relay.NewHandler(l, os.Stderr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	fmt.Fprintf(os.Stderr, "relay listening on %s (%s)\n", addr, l.Path())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
