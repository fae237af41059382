// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queue

import "github.com/pdiddy/annotate/pkg/types"

// Policy decides which record is next. A session uses exactly one policy
// for its whole lifetime; cursor and scan tracking are never mixed.
type Policy interface {
	// Mode reports which progress representation the policy maintains.
	Mode() types.ProgressMode

	// Next returns the index of the next unprocessed record. It does not
	// mutate the policy.
	Next(records []types.Record) (int, bool)

	// Peek returns the index of the record that would follow from once from
	// is processed, without mutating the policy.
	Peek(records []types.Record, from int) (int, bool)

	// Advance moves past the record Next returned.
	Advance(records []types.Record)

	// MarkAnnotated records that id has been judged.
	MarkAnnotated(id string)

	// Annotated counts the records in the list that are done.
	Annotated(records []types.Record) int

	// Progress returns a snapshot suitable for persisting.
	Progress() types.ProgressState
}

// Cursor is the positional policy: the next record is records[pos], and
// completion is purely a function of pos.
type Cursor struct {
	pos int
}

// NewCursor returns a cursor policy starting at pos. Negative positions clamp to 0.
func NewCursor(pos int) *Cursor {
	if pos < 0 {
		pos = 0
	}
	return &Cursor{pos: pos}
}

// Mode returns types.ModeCursor.
func (c *Cursor) Mode() types.ProgressMode { return types.ModeCursor }

// Position returns the current cursor.
func (c *Cursor) Position() int { return c.pos }

func (c *Cursor) Next(records []types.Record) (int, bool) {
	if c.pos < len(records) {
		return c.pos, true
	}
	return 0, false
}

func (c *Cursor) Peek(records []types.Record, from int) (int, bool) {
	if next := from + 1; next < len(records) {
		return next, true
	}
	return 0, false
}

// Advance increments the cursor by exactly one. It never decrements.
func (c *Cursor) Advance(_ []types.Record) { c.pos++ }

// MarkAnnotated is a no-op: out-of-order marking is not representable.
func (c *Cursor) MarkAnnotated(string) {}

func (c *Cursor) Annotated(records []types.Record) int {
	return min(c.pos, len(records))
}

func (c *Cursor) Progress() types.ProgressState {
	return types.ProgressState{Mode: types.ModeCursor, Cursor: c.pos}
}

// Scan is the membership policy: the next record is the first one, in list
// order, whose id is not in the annotated set. With wrap enabled the scan
// resumes from the last position and wraps to the beginning once, so
// records annotated out of order never hide earlier unannotated ones.
type Scan struct {
	done  map[string]struct{}
	order []string
	wrap  bool
	start int
}

// NewScan returns a scan policy seeded with already-annotated ids.
// Duplicate ids collapse.
func NewScan(annotated []string, wrap bool) *Scan {
	s := &Scan{done: make(map[string]struct{}, len(annotated)), wrap: wrap}
	for _, id := range annotated {
		s.MarkAnnotated(id)
	}
	return s
}

// Mode returns types.ModeScan.
func (s *Scan) Mode() types.ProgressMode { return types.ModeScan }

// IsAnnotated reports whether id is in the annotated set.
func (s *Scan) IsAnnotated(id string) bool {
	_, ok := s.done[id]
	return ok
}

func (s *Scan) Next(records []types.Record) (int, bool) {
	from := 0
	if s.wrap {
		from = s.start
	}
	return s.scan(records, from, len(records))
}

func (s *Scan) Peek(records []types.Record, from int) (int, bool) {
	if s.wrap {
		return s.scan(records, from+1, len(records)-1)
	}
	if from+1 >= len(records) {
		return 0, false
	}
	return s.scan(records, from+1, len(records)-from-1)
}

// scan checks up to count records starting at from, wrapping past the end.
func (s *Scan) scan(records []types.Record, from, count int) (int, bool) {
	n := len(records)
	for i := 0; i < count; i++ {
		idx := (from + i) % n
		if !s.IsAnnotated(records[idx].ID) {
			return idx, true
		}
	}
	return 0, false
}

// Advance re-runs the scan. In the wrap variant it remembers where the
// next unannotated record was found.
func (s *Scan) Advance(records []types.Record) {
	if !s.wrap {
		return
	}
	if idx, ok := s.Next(records); ok {
		s.start = idx
	}
}

func (s *Scan) MarkAnnotated(id string) {
	if _, ok := s.done[id]; ok {
		return
	}
	s.done[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *Scan) Annotated(records []types.Record) int {
	n := 0
	for _, r := range records {
		if s.IsAnnotated(r.ID) {
			n++
		}
	}
	return n
}

func (s *Scan) Progress() types.ProgressState {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return types.ProgressState{Mode: types.ModeScan, AnnotatedIDs: ids}
}

// NewPolicy builds the policy matching p.Mode.
func NewPolicy(p types.ProgressState, wrap bool) Policy {
	if p.Mode == types.ModeScan {
		return NewScan(p.AnnotatedIDs, wrap)
	}
	return NewCursor(p.Cursor)
}
