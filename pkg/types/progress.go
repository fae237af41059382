// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ProgressMode selects how a session tracks which records are done.
type ProgressMode string

const (
	// ModeCursor tracks a single index into the record list. It assumes the
	// list order is stable across sessions.
	ModeCursor ProgressMode = "cursor"

	// ModeScan tracks the set of annotated record IDs and scans the list
	// for the first one missing from it.
	ModeScan ProgressMode = "scan"
)

// ErrHybridProgress is returned by Validate when a state mixes both modes.
var ErrHybridProgress = errors.New("progress state mixes cursor and annotated ids")

// ParseProgressMode maps a configuration string to a ProgressMode.
// The empty string selects ModeCursor.
func ParseProgressMode(s string) (ProgressMode, error) {
	switch ProgressMode(s) {
	case "", ModeCursor:
		return ModeCursor, nil
	case ModeScan:
		return ModeScan, nil
	default:
		return "", fmt.Errorf("unknown progress mode %q: use cursor or scan", s)
	}
}

// ProgressState is the persisted position of one user. Exactly one of
// Cursor or AnnotatedIDs is meaningful, as selected by Mode.
type ProgressState struct {
	// Mode selects which of the other fields is in use.
	Mode ProgressMode `json:"mode" yaml:"mode"`

	// Cursor is the index of the next unprocessed record (ModeCursor).
	Cursor int `json:"last_index,omitempty" yaml:"last_index,omitempty"`

	// AnnotatedIDs lists annotated record IDs (ModeScan).
	AnnotatedIDs []string `json:"annotated_ids,omitempty" yaml:"annotated_ids,omitempty"`
}

// EmptyProgress returns the "nothing annotated" state for mode.
func EmptyProgress(mode ProgressMode) ProgressState {
	return ProgressState{Mode: mode}
}

// Validate rejects states that are not a pure cursor or a pure id set.
func (p ProgressState) Validate() error {
	switch p.Mode {
	case ModeCursor:
		if len(p.AnnotatedIDs) > 0 {
			return ErrHybridProgress
		}
		if p.Cursor < 0 {
			return fmt.Errorf("negative cursor %d", p.Cursor)
		}
	case ModeScan:
		if p.Cursor != 0 {
			return ErrHybridProgress
		}
	default:
		return fmt.Errorf("unknown progress mode %q", p.Mode)
	}
	return nil
}

// Stats summarises queue progress for display.
type Stats struct {
	Total     int `json:"total" yaml:"total"`
	Annotated int `json:"annotated" yaml:"annotated"`
	Remaining int `json:"remaining" yaml:"remaining"`
}

// Percent returns the annotated share in [0, 100]. An empty queue is 0%.
func (s Stats) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Annotated) / float64(s.Total) * 100
}
