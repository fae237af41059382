// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/annotate/pkg/types"
)

// Relay actions.
const (
	ActionAnnotation = "annotation"
	ActionProgress   = "progress"
	ActionRecords    = "records"
)

// AnnotationRequest is the relay body appending one annotation. Annotation
// fields are flat, as the spreadsheet script expects.
type AnnotationRequest struct {
	Action string `json:"action"`
	types.Annotation
}

// ProgressRequest is the relay body storing one user's progress.
type ProgressRequest struct {
	Action       string             `json:"action"`
	UserID       string             `json:"user_id"`
	Mode         types.ProgressMode `json:"mode"`
	LastIndex    *int               `json:"last_index,omitempty"`
	AnnotatedIDs []string           `json:"annotated_ids,omitempty"`
}

// RelayResponse is every relay answer. Success false carries Error.
type RelayResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	LastIndex    *int           `json:"last_index,omitempty"`
	AnnotatedIDs []string       `json:"annotated_ids,omitempty"`
	Records      []types.Record `json:"records,omitempty"`
}

// Progress converts a progress answer to a state. An answer with neither
// field means nothing is annotated.
func (r RelayResponse) Progress() types.ProgressState {
	switch {
	case r.LastIndex != nil:
		return types.ProgressState{Mode: types.ModeCursor, Cursor: *r.LastIndex}
	case len(r.AnnotatedIDs) > 0:
		return types.ProgressState{Mode: types.ModeScan, AnnotatedIDs: r.AnnotatedIDs}
	default:
		return types.ProgressState{}
	}
}

// NewProgressRequest builds the relay body persisting p for userID.
func NewProgressRequest(userID string, p types.ProgressState) ProgressRequest {
	req := ProgressRequest{Action: ActionProgress, UserID: userID, Mode: p.Mode}
	if p.Mode == types.ModeScan {
		req.AnnotatedIDs = p.AnnotatedIDs
	} else {
		cursor := p.Cursor
		req.LastIndex = &cursor
	}
	return req
}

// State extracts the progress carried by the request.
func (r ProgressRequest) State() types.ProgressState {
	if r.Mode == types.ModeScan || (r.LastIndex == nil && len(r.AnnotatedIDs) > 0) {
		return types.ProgressState{Mode: types.ModeScan, AnnotatedIDs: r.AnnotatedIDs}
	}
	p := types.ProgressState{Mode: types.ModeCursor}
	if r.LastIndex != nil {
		p.Cursor = *r.LastIndex
	}
	return p
}

// relayConfigured reports whether the relay URL is usable. Empty URLs and
// the setup placeholder are not.
func (r *Remote) relayConfigured() bool {
	return validRelayURL(r.relay.URL)
}

func validRelayURL(raw string) bool {
	if raw == "" || strings.Contains(strings.ToUpper(raw), "YOUR_") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// PersistAnnotation appends a to the annotations sheet through the relay.
func (r *Remote) PersistAnnotation(ctx context.Context, a types.Annotation) error {
	_, err := r.post(ctx, AnnotationRequest{Action: ActionAnnotation, Annotation: a})
	return err
}

// PersistProgress stores p as userID's progress through the relay. When
// scan progress is read back from the annotations sheet, the annotation
// rows already record it and nothing is sent: the spreadsheet script
// appends a row for every POST, whatever its action.
func (r *Remote) PersistProgress(ctx context.Context, userID string, p types.ProgressState) error {
	if r.columnProgress() && p.Mode == types.ModeScan {
		return nil
	}
	_, err := r.post(ctx, NewProgressRequest(userID, p))
	return err
}

func (r *Remote) relayProgress(ctx context.Context, userID string) (types.ProgressState, error) {
	resp, err := r.get(ctx, url.Values{"action": {ActionProgress}, "user_id": {userID}})
	if err != nil {
		return types.ProgressState{}, err
	}
	return resp.Progress(), nil
}

func (r *Remote) relayRecords(ctx context.Context) ([]types.Record, error) {
	if !r.relayConfigured() {
		return nil, fmt.Errorf("no spreadsheet id and %w", ErrRelayNotConfigured)
	}
	resp, err := r.get(ctx, url.Values{"action": {ActionRecords}})
	if err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func (r *Remote) post(ctx context.Context, body any) (RelayResponse, error) {
	if !r.relayConfigured() {
		return RelayResponse{}, ErrRelayNotConfigured
	}
	data, err := json.Marshal(body)
	if err != nil {
		return RelayResponse{}, fmt.Errorf("encoding relay request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.relay.URL, bytes.NewReader(data))
	if err != nil {
		return RelayResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req)
}

func (r *Remote) get(ctx context.Context, params url.Values) (RelayResponse, error) {
	if !r.relayConfigured() {
		return RelayResponse{}, ErrRelayNotConfigured
	}
	u, err := url.Parse(r.relay.URL)
	if err != nil {
		return RelayResponse{}, fmt.Errorf("parsing relay URL: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return RelayResponse{}, fmt.Errorf("creating request: %w", err)
	}
	return r.do(req)
}

// do sends one relay request. Relay writes are not retried.
func (r *Remote) do(req *http.Request) (RelayResponse, error) {
	if r.relay.UserAgent != "" {
		req.Header.Set("User-Agent", r.relay.UserAgent)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return RelayResponse{}, fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var rr RelayResponse
		if json.NewDecoder(resp.Body).Decode(&rr) == nil && rr.Error != "" {
			return RelayResponse{}, fmt.Errorf("relay returned HTTP %d: %s", resp.StatusCode, rr.Error)
		}
		return RelayResponse{}, fmt.Errorf("relay returned HTTP %d", resp.StatusCode)
	}

	var rr RelayResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return RelayResponse{}, fmt.Errorf("parsing relay response: %w", err)
	}
	if !rr.Success {
		msg := rr.Error
		if msg == "" {
			msg = "unspecified failure"
		}
		return rr, fmt.Errorf("relay error: %s", msg)
	}
	return rr, nil
}
