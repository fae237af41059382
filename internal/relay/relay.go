// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relay serves the relay protocol the remote store speaks, backed
// by any store. It lets a deployment replace the spreadsheet script with
// `annotate relay` in front of the local SQLite database.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/annotate/internal/store"
	"github.com/pdiddy/annotate/pkg/types"
)

// HealthMessage is the body of a GET without an action.
const HealthMessage = "annotation relay is running\n\nUse POST to store annotations and progress.\n"

// maxBody caps request bodies.
const maxBody = 1 << 20

// Backend is the storage behind the relay.
type Backend interface {
	FetchRecords(ctx context.Context) ([]types.Record, error)
	FetchProgress(ctx context.Context, userID string) (types.ProgressState, error)
	PersistProgress(ctx context.Context, userID string, p types.ProgressState) error
	PersistAnnotation(ctx context.Context, a types.Annotation) error
}

var errBadRequest = errors.New("bad request")

// Handler answers relay requests. Every JSON answer is a
// store.RelayResponse; failures carry success false and a message.
type Handler struct {
	backend Backend
	log     io.Writer
}

// NewHandler returns a relay handler over b. Each request is logged to log
// as one line.
func NewHandler(b Backend, log io.Writer) *Handler {
	if log == nil {
		log = io.Discard
	}
	return &Handler{backend: b, log: log}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		resp store.RelayResponse
		err  error
	)
	switch r.Method {
	case http.MethodGet:
		action := r.URL.Query().Get("action")
		if action == "" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			io.WriteString(w, HealthMessage)
			return
		}
		resp, err = h.get(r.Context(), action, r)
	case http.MethodPost:
		resp, err = h.post(r.Context(), r)
	default:
		err = fmt.Errorf("%w: method %s not allowed", errBadRequest, r.Method)
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
		if errors.Is(err, errBadRequest) {
			status = http.StatusBadRequest
		}
		resp = store.RelayResponse{Error: err.Error()}
		fmt.Fprintf(h.log, "relay %s %s: %v\n", r.Method, r.URL.Query().Get("action"), err)
	} else {
		resp.Success = true
	}
	writeJSON(w, status, resp)
}

func (h *Handler) get(ctx context.Context, action string, r *http.Request) (store.RelayResponse, error) {
	switch action {
	case store.ActionProgress:
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if userID == "" {
			return store.RelayResponse{}, fmt.Errorf("%w: user_id is required", errBadRequest)
		}
		p, err := h.backend.FetchProgress(ctx, userID)
		if err != nil {
			return store.RelayResponse{}, err
		}
		return progressResponse(p), nil
	case store.ActionRecords:
		recs, err := h.backend.FetchRecords(ctx)
		if err != nil {
			return store.RelayResponse{}, err
		}
		return store.RelayResponse{Records: recs}, nil
	default:
		return store.RelayResponse{}, fmt.Errorf("%w: unknown action %q", errBadRequest, action)
	}
}

// post decodes the action first, then the body for that action. A body
// without an action is an annotation, as the first relay version sent.
func (h *Handler) post(ctx context.Context, r *http.Request) (store.RelayResponse, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return store.RelayResponse{}, fmt.Errorf("reading body: %w", err)
	}

	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return store.RelayResponse{}, fmt.Errorf("%w: invalid json: %v", errBadRequest, err)
	}

	switch head.Action {
	case "", store.ActionAnnotation:
		var req store.AnnotationRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return store.RelayResponse{}, fmt.Errorf("%w: invalid annotation: %v", errBadRequest, err)
		}
		if req.RecordID == "" {
			return store.RelayResponse{}, fmt.Errorf("%w: item_id is required", errBadRequest)
		}
		if len(req.AffiliatedAuthors) > 0 {
			req.AuthorAffiliation = true
		}
		return store.RelayResponse{}, h.backend.PersistAnnotation(ctx, req.Annotation)
	case store.ActionProgress:
		var req store.ProgressRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return store.RelayResponse{}, fmt.Errorf("%w: invalid progress: %v", errBadRequest, err)
		}
		if strings.TrimSpace(req.UserID) == "" {
			return store.RelayResponse{}, fmt.Errorf("%w: user_id is required", errBadRequest)
		}
		if req.LastIndex != nil && len(req.AnnotatedIDs) > 0 {
			return store.RelayResponse{}, fmt.Errorf("%w: %v", errBadRequest, types.ErrHybridProgress)
		}
		p := req.State()
		if err := p.Validate(); err != nil {
			return store.RelayResponse{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return store.RelayResponse{}, h.backend.PersistProgress(ctx, req.UserID, p)
	default:
		return store.RelayResponse{}, fmt.Errorf("%w: unknown action %q", errBadRequest, head.Action)
	}
}

// progressResponse answers with the field matching p's mode. No stored
// progress answers with neither field.
func progressResponse(p types.ProgressState) store.RelayResponse {
	switch p.Mode {
	case types.ModeCursor:
		cursor := p.Cursor
		return store.RelayResponse{LastIndex: &cursor}
	case types.ModeScan:
		return store.RelayResponse{AnnotatedIDs: p.AnnotatedIDs}
	default:
		return store.RelayResponse{}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
