// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/annotate/internal/netid"
	"github.com/pdiddy/annotate/internal/queue"
	"github.com/pdiddy/annotate/internal/secrets"
	"github.com/pdiddy/annotate/internal/store"
	"github.com/pdiddy/annotate/pkg/types"
)

const (
	backendRemote = "remote"
	backendLocal  = "local"
)

func setDefaults() {
	viper.SetDefault("backend", backendRemote)
	viper.SetDefault("secrets_dir", ".secrets/")
	viper.SetDefault("journal", true)
	viper.SetDefault("http.timeout", 30*time.Second)
	viper.SetDefault("http.user_agent", "annotate/"+version)
	viper.SetDefault("local.path", store.DefaultLocalPath)
	viper.SetDefault("session.mode", string(types.ModeCursor))
	viper.SetDefault("session.ip_lookup_url", netid.DefaultURL)
	viper.SetDefault("session.flush_timeout", 5*time.Second)
	viper.SetDefault("relay.addr", "127.0.0.1:8080")
}

func httpConfig() types.HTTPConfig {
	return types.HTTPConfig{
		Timeout:   viper.GetDuration("http.timeout"),
		UserAgent: viper.GetString("http.user_agent"),
	}
}

func sheetsConfig() types.SheetsConfig {
	return types.SheetsConfig{
		HTTPConfig:       httpConfig(),
		SpreadsheetID:    viper.GetString("sheets.spreadsheet_id"),
		APIKey:           secrets.Or(loadedSecrets, secrets.SheetsAPIKey, viper.GetString("sheets.api_key")),
		DataRange:        viper.GetString("sheets.data_range"),
		AnnotationsRange: viper.GetString("sheets.annotations_range"),
	}
}

func relayConfig() types.RelayConfig {
	return types.RelayConfig{
		HTTPConfig: httpConfig(),
		URL:        secrets.Or(loadedSecrets, secrets.RelayURL, viper.GetString("relay.url")),
	}
}

func localConfig() types.LocalStoreConfig {
	return types.LocalStoreConfig{Path: viper.GetString("local.path")}
}

func sessionConfig() (types.SessionConfig, error) {
	mode, err := types.ParseProgressMode(viper.GetString("session.mode"))
	if err != nil {
		return types.SessionConfig{}, err
	}
	return types.SessionConfig{
		UserID:       viper.GetString("session.user_id"),
		Mode:         mode,
		Wrap:         viper.GetBool("session.wrap"),
		IPLookupURL:  viper.GetString("session.ip_lookup_url"),
		FlushTimeout: viper.GetDuration("session.flush_timeout"),
	}, nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: httpConfig().Timeout}
}

// stores is the session store plus the optional local journal.
type stores struct {
	session queue.Store
	local   *store.Local
	journal queue.AnnotationWriter
}

func (s stores) Close() {
	if s.local != nil {
		s.local.Close()
	}
}

// openStores opens the configured backend. With the remote backend and
// journaling on, the local database also receives every annotation.
func openStores(mode types.ProgressMode, log io.Writer) (stores, error) {
	switch backend := viper.GetString("backend"); backend {
	case backendLocal:
		l, err := store.OpenLocal(localConfig())
		if err != nil {
			return stores{}, err
		}
		return stores{session: l, local: l}, nil
	case backendRemote:
		st := stores{session: store.NewRemote(httpClient(), sheetsConfig(), relayConfig(), mode, log)}
		if viper.GetBool("journal") {
			l, err := store.OpenLocal(localConfig())
			if err != nil {
				return stores{}, fmt.Errorf("opening journal: %w", err)
			}
			st.local = l
			st.journal = l
		}
		return st, nil
	default:
		return stores{}, fmt.Errorf("unknown backend %q: use %s or %s", backend, backendRemote, backendLocal)
	}
}
