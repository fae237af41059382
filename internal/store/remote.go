// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store implements the stores an annotation session reads records
// and progress from and writes judgments to: the spreadsheet-backed remote
// store (Sheets values API for reads, an HTTP relay for writes) and a local
// SQLite store used offline, as a journal, and behind `annotate relay`.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdiddy/annotate/internal/httputil"
	"github.com/pdiddy/annotate/pkg/types"
)

// sheetsAPIBase is the Sheets values endpoint. Declared as a var so tests
// can substitute an httptest server.
var sheetsAPIBase = "https://sheets.googleapis.com/v4/spreadsheets/"

const (
	defaultDataRange        = "Data!A:M"
	defaultAnnotationsRange = "Annotations!A:A"
)

// ErrRelayNotConfigured is returned for writes when no usable relay URL is set.
var ErrRelayNotConfigured = errors.New("relay URL is not configured: set relay.url or .secrets/relay-url")

// Remote is the spreadsheet-backed store. Records and, in scan mode, the
// annotated-id column are read from the Sheets values API; progress and
// annotations go through the relay. Without a spreadsheet ID, records are
// read from the relay too.
type Remote struct {
	client *http.Client
	sheets types.SheetsConfig
	relay  types.RelayConfig
	mode   types.ProgressMode
	log    io.Writer
}

// NewRemote returns a remote store. mode selects which progress shape
// FetchProgress returns. Rate-limit notices are written to log.
func NewRemote(client *http.Client, sheets types.SheetsConfig, relay types.RelayConfig, mode types.ProgressMode, log io.Writer) *Remote {
	if sheets.DataRange == "" {
		sheets.DataRange = defaultDataRange
	}
	if sheets.AnnotationsRange == "" {
		sheets.AnnotationsRange = defaultAnnotationsRange
	}
	if log == nil {
		log = io.Discard
	}
	return &Remote{client: client, sheets: sheets, relay: relay, mode: mode, log: log}
}

// valuesResponse is the Sheets values.get payload.
type valuesResponse struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

// sheetsError is the Sheets API error envelope.
type sheetsError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// FetchRecords reads the record list. The first row of the data range is
// a header and is skipped.
func (r *Remote) FetchRecords(ctx context.Context) ([]types.Record, error) {
	if r.sheets.SpreadsheetID == "" {
		return r.relayRecords(ctx)
	}
	rows, err := r.values(ctx, r.sheets.DataRange)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return RecordsFromRows(rows[1:]), nil
}

// FetchProgress returns the stored progress for userID in the store's
// mode. In scan mode with a spreadsheet configured, when the relay has
// nothing for the user or cannot answer, the annotated ids are read from
// the first column of the annotations range. A relay error is returned
// only when that read fails too.
func (r *Remote) FetchProgress(ctx context.Context, userID string) (types.ProgressState, error) {
	var (
		p        types.ProgressState
		relayErr error
	)
	if r.relayConfigured() {
		p, relayErr = r.relayProgress(ctx, userID)
	}
	if !r.columnProgress() {
		if relayErr != nil {
			return types.ProgressState{}, relayErr
		}
		return p, nil
	}

	if relayErr != nil {
		fmt.Fprintf(r.log, "warning: reading progress for %s from the relay: %v; using the annotations sheet\n", userID, relayErr)
	} else if len(p.AnnotatedIDs) > 0 {
		return p, nil
	}
	ids, err := r.annotatedColumn(ctx)
	if err != nil {
		if relayErr != nil {
			return types.ProgressState{}, relayErr
		}
		return types.ProgressState{}, err
	}
	return types.ProgressState{Mode: types.ModeScan, AnnotatedIDs: ids}, nil
}

// columnProgress reports whether scan progress lives in the annotations
// sheet, where every appended annotation row marks its record done.
func (r *Remote) columnProgress() bool {
	return r.mode == types.ModeScan && r.sheets.SpreadsheetID != ""
}

// annotatedColumn reads the ids in the annotations range, header skipped.
func (r *Remote) annotatedColumn(ctx context.Context) ([]string, error) {
	rows, err := r.values(ctx, r.sheets.AnnotationsRange)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	var ids []string
	for _, row := range rows[1:] {
		if id := cell(row, 0); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// values fetches one A1 range from the Sheets values API.
func (r *Remote) values(ctx context.Context, a1Range string) ([][]string, error) {
	reqURL := sheetsAPIBase + url.PathEscape(r.sheets.SpreadsheetID) +
		"/values/" + url.PathEscape(a1Range)
	if r.sheets.APIKey != "" {
		reqURL += "?" + url.Values{"key": {r.sheets.APIKey}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if r.sheets.UserAgent != "" {
		req.Header.Set("User-Agent", r.sheets.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, r.client, req, 0, r.log)
	if err != nil {
		return nil, fmt.Errorf("Sheets API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var se sheetsError
		if json.NewDecoder(resp.Body).Decode(&se) == nil && se.Error.Message != "" {
			return nil, fmt.Errorf("Sheets API returned HTTP %d: %s", resp.StatusCode, se.Error.Message)
		}
		return nil, fmt.Errorf("Sheets API returned HTTP %d", resp.StatusCode)
	}

	var vr valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("parsing Sheets response: %w", err)
	}
	return vr.Values, nil
}
