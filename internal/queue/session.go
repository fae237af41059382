// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package queue implements the annotation queue: per-sign-in session state,
// the advancement engine, the dual-buffer preloader, and fire-and-forget
// submission of judgments to the store.
package queue

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/pdiddy/annotate/pkg/types"
)

var (
	// ErrNoRecords is returned by Open when the store has no records.
	ErrNoRecords = errors.New("no records in the store")

	// ErrNoUser is returned by Open when no session identity was supplied.
	ErrNoUser = errors.New("no user id: sign in with --user")

	// ErrModeMismatch reports stored progress in a different mode than the session's.
	ErrModeMismatch = errors.New("stored progress uses a different mode")

	// ErrNoCurrent is returned when judging without a displayed record.
	ErrNoCurrent = errors.New("no record is being reviewed")

	// ErrClosed is returned by operations on a signed-out session.
	ErrClosed = errors.New("session is closed")
)

// Store is the remote store the queue reads records and progress from and
// writes judgments to.
type Store interface {
	FetchRecords(ctx context.Context) ([]types.Record, error)
	FetchProgress(ctx context.Context, userID string) (types.ProgressState, error)
	PersistProgress(ctx context.Context, userID string, state types.ProgressState) error
	PersistAnnotation(ctx context.Context, a types.Annotation) error
}

// Session is one signed-in user's working state over a record list. It is
// created per sign-in and discarded by Close. Only the Engine mutates it.
type Session struct {
	// ID distinguishes this sign-in in annotation rows.
	ID string

	// UserID is the session identity attached to every write.
	UserID string

	records []types.Record
	policy  Policy
	current int
	closed  bool
}

// NewSession builds a session over records using policy.
func NewSession(userID string, records []types.Record, policy Policy) *Session {
	return &Session{
		ID:      uuid.NewString(),
		UserID:  userID,
		records: records,
		policy:  policy,
		current: -1,
	}
}

// Open signs userID in: it fetches the record list and the user's progress
// and builds a session using the mode in cfg.
//
// A record fetch failure, or an empty record list, is fatal. A progress
// fetch failure is not: the session starts from the beginning and a
// warning is written to w.
func Open(ctx context.Context, st Store, cfg types.SessionConfig, w io.Writer) (*Session, error) {
	if cfg.UserID == "" {
		return nil, ErrNoUser
	}
	mode, err := types.ParseProgressMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}

	records, err := st.FetchRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	fmt.Fprintf(w, "loaded %d records\n", len(records))

	progress, err := loadProgress(ctx, st, cfg.UserID, mode)
	if err != nil {
		fmt.Fprintf(w, "warning: loading progress for %s: %v; starting from the beginning\n", cfg.UserID, err)
		progress = types.EmptyProgress(mode)
	}

	return NewSession(cfg.UserID, records, NewPolicy(progress, cfg.Wrap)), nil
}

// loadProgress fetches and checks the stored progress. A zero state means
// the user has never saved anything.
func loadProgress(ctx context.Context, st Store, userID string, mode types.ProgressMode) (types.ProgressState, error) {
	p, err := st.FetchProgress(ctx, userID)
	if err != nil {
		return types.ProgressState{}, err
	}
	if p.Mode == "" {
		p.Mode = mode
	}
	if p.Mode != mode {
		return types.ProgressState{}, fmt.Errorf("%w: have %s, want %s", ErrModeMismatch, p.Mode, mode)
	}
	if err := p.Validate(); err != nil {
		return types.ProgressState{}, err
	}
	return p, nil
}

// Records returns the session's record list. Callers must not modify it.
func (s *Session) Records() []types.Record { return s.records }

// Mode reports the session's progress mode.
func (s *Session) Mode() types.ProgressMode { return s.policy.Mode() }

// Progress snapshots the session's progress state.
func (s *Session) Progress() types.ProgressState { return s.policy.Progress() }

// Current returns the record under review, if any.
func (s *Session) Current() (types.Record, bool) {
	if s.closed || s.current < 0 {
		return types.Record{}, false
	}
	return s.records[s.current], true
}

// Closed reports whether the session has been signed out.
func (s *Session) Closed() bool { return s.closed }

// Close signs the session out. Local progress is dropped; it is recoverable
// from the store on the next sign-in.
func (s *Session) Close() {
	s.closed = true
	s.records = nil
	s.policy = NewPolicy(types.EmptyProgress(s.policy.Mode()), false)
	s.current = -1
}
