// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the annotate CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/annotate/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the annotate CLI.
var rootCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Review a queue of bibliographic records one at a time",
	Long: `annotate presents bibliographic records to a reviewer one at a time.
For each record the reviewer marks whether the word is mentioned and whether
an author is affiliated, then moves on to the next unreviewed record.

Records, progress, and judgments live in a spreadsheet reached through the
Sheets API and an HTTP relay, or in a local SQLite database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(viper.GetString("secrets_dir"), os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./annotate.yaml or ~/.config/annotate/annotate.yaml)")
	pf.String("backend", "remote", "record store: remote (spreadsheet) or local (SQLite)")
	pf.String("db", "", "SQLite database path (default: annotate.db)")
	pf.String("user", "", "user id attached to progress and annotations")
	pf.String("mode", "", "progress mode: cursor or scan (default: cursor)")

	for key, flag := range map[string]string{
		"backend":         "backend",
		"local.path":      "db",
		"session.user_id": "user",
		"session.mode":    "mode",
	} {
		viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("annotate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "annotate"))
		}
	}

	setDefaults()

	viper.SetEnvPrefix("ANNOTATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
