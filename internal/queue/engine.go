// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queue

import (
	"time"

	"github.com/pdiddy/annotate/pkg/types"
)

// Judgment is what the reviewer decided about the current record.
type Judgment struct {
	WordMention       bool
	AuthorAffiliation bool
	AffiliatedAuthors []string
}

// Engine advances a Session through its record list. The engine never
// blocks and never persists; persistence is handed to the Submitter.
type Engine struct {
	session   *Session
	submitter *Submitter
	now       func() time.Time
}

// NewEngine returns an engine over s. A nil submitter keeps judgments local.
func NewEngine(s *Session, sub *Submitter) *Engine {
	return &Engine{session: s, submitter: sub, now: time.Now}
}

// Session returns the engine's session.
func (e *Engine) Session() *Session { return e.session }

// Next returns the next unprocessed record and makes it current. It
// returns false when the queue is complete.
func (e *Engine) Next() (types.Record, bool) {
	s := e.session
	if s.closed {
		return types.Record{}, false
	}
	idx, ok := s.policy.Next(s.records)
	if !ok {
		s.current = -1
		return types.Record{}, false
	}
	s.current = idx
	return s.records[idx], true
}

// Peek returns the record that follows the next one, without side effects.
func (e *Engine) Peek() (types.Record, bool) {
	s := e.session
	if s.closed {
		return types.Record{}, false
	}
	idx, ok := s.policy.Next(s.records)
	if !ok {
		return types.Record{}, false
	}
	if idx, ok = s.policy.Peek(s.records, idx); !ok {
		return types.Record{}, false
	}
	return s.records[idx], true
}

// Advance moves past the current record: the cursor policy increments by
// one, the scan policy re-runs its scan. Calls are not de-duplicated.
func (e *Engine) Advance() {
	s := e.session
	if s.closed {
		return
	}
	s.policy.Advance(s.records)
	s.current = -1
}

// IsComplete reports whether Next would return false. It does not mutate
// the session.
func (e *Engine) IsComplete() bool {
	s := e.session
	if s.closed {
		return true
	}
	_, ok := s.policy.Next(s.records)
	return !ok
}

// Stats summarises progress over the record list.
func (e *Engine) Stats() types.Stats {
	s := e.session
	total := len(s.records)
	done := 0
	if !s.closed {
		done = s.policy.Annotated(s.records)
	}
	return types.Stats{Total: total, Annotated: done, Remaining: total - done}
}

// Submit records j for the current record and advances optimistically:
// the session moves on before anything reaches the store, so the reviewer
// never waits on the network. The returned annotation is what was handed
// to the submitter.
func (e *Engine) Submit(j Judgment) (types.Annotation, error) {
	s := e.session
	if s.closed {
		return types.Annotation{}, ErrClosed
	}
	rec, ok := s.Current()
	if !ok {
		return types.Annotation{}, ErrNoCurrent
	}

	a := types.Annotation{
		RecordID:          rec.ID,
		WordMention:       j.WordMention,
		AuthorAffiliation: j.AuthorAffiliation || len(j.AffiliatedAuthors) > 0,
		AffiliatedAuthors: j.AffiliatedAuthors,
		UserID:            s.UserID,
		SessionID:         s.ID,
		Timestamp:         types.FormatTimestamp(e.now()),
	}

	s.policy.MarkAnnotated(rec.ID)
	e.Advance()

	if e.submitter != nil {
		e.submitter.Submit(a, s.policy.Progress())
	}
	return a, nil
}

// Skip submits an empty judgment for the current record.
func (e *Engine) Skip() (types.Annotation, error) {
	return e.Submit(Judgment{})
}
