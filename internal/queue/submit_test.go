// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queue

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/annotate/pkg/types"
)

// syncBuffer is a strings.Builder safe for concurrent writers.
type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func flush(t *testing.T, sub *Submitter) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub.Flush(ctx)
}

func TestSubmitPersistsAnnotationAndProgress(t *testing.T) {
	st := newMemStore(records("R1", "R2")...)
	sub := NewSubmitter(st, SubmitterConfig{
		UserID:   "u1",
		LookupIP: func(context.Context) string { return "203.0.113.7" },
	})
	c := NewController(NewSession("u1", st.records, NewCursor(0)), newFakeDisplay(), sub)

	_, ok, err := c.Start()
	require.NoError(t, err)
	require.True(t, ok)
	_, _, err = c.Submit(Judgment{WordMention: true})
	require.NoError(t, err)
	flush(t, sub)

	annotations, writes := st.snapshot()
	require.Len(t, annotations, 1)
	assert.Equal(t, "R1", annotations[0].RecordID)
	assert.Equal(t, "203.0.113.7", annotations[0].ClientIP)
	require.NotEmpty(t, writes)
	assert.Equal(t, types.ProgressState{Mode: types.ModeCursor, Cursor: 1}, writes[len(writes)-1])
}

// A failing store must not undo the optimistic advance or surface an error.
func TestSubmitFailureKeepsOptimisticAdvance(t *testing.T) {
	st := newMemStore(records("R1", "R2", "R3")...)
	st.failAnnotations = true
	st.failProgress = true
	log := &syncBuffer{}

	sub := NewSubmitter(st, SubmitterConfig{UserID: "u1", Log: log})
	d := newFakeDisplay()
	c := NewController(NewSession("u1", st.records, NewCursor(0)), d, sub)

	_, _, err := c.Start()
	require.NoError(t, err)
	rec, ok, err := c.Submit(Judgment{WordMention: true})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "R2", rec.ID)
	assert.Equal(t, "R2", d.shown())
	assert.Equal(t, 1, c.Engine().Session().Progress().Cursor)

	flush(t, sub)
	assert.Contains(t, log.String(), "warning: saving annotation R1")
	assert.Contains(t, log.String(), "warning: saving progress for u1")
}

// Two rapid submits advance over two distinct records even though their
// writes complete later and in any order.
func TestSubmitRapidActionsCoverDistinctRecords(t *testing.T) {
	st := newMemStore(records("R1", "R2", "R3")...)
	st.gate = make(chan struct{})
	sub := NewSubmitter(st, SubmitterConfig{UserID: "u1"})
	c := NewController(NewSession("u1", st.records, NewCursor(0)), newFakeDisplay(), sub)

	_, _, err := c.Start()
	require.NoError(t, err)
	_, _, err = c.Submit(Judgment{})
	require.NoError(t, err)
	rec, ok, err := c.Submit(Judgment{WordMention: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "R3", rec.ID)
	assert.Equal(t, 2, sub.InFlight())

	close(st.gate)
	flush(t, sub)

	annotations, writes := st.snapshot()
	ids := []string{annotations[0].RecordID, annotations[1].RecordID}
	assert.ElementsMatch(t, []string{"R1", "R2"}, ids)
	assert.Equal(t, 2, writes[len(writes)-1].Cursor, "progress never regresses")
	for i := 1; i < len(writes); i++ {
		assert.GreaterOrEqual(t, writes[i].Cursor, writes[i-1].Cursor)
	}
}

func TestSubmitWritesJournalFirst(t *testing.T) {
	st := newMemStore(records("R1")...)
	journal := newMemStore()
	sub := NewSubmitter(st, SubmitterConfig{UserID: "u1", Journal: journal})

	sub.Submit(types.Annotation{RecordID: "R1"}, types.ProgressState{Mode: types.ModeCursor, Cursor: 1})
	flush(t, sub)

	annotations, _ := journal.snapshot()
	require.Len(t, annotations, 1)
	assert.Equal(t, "unknown", annotations[0].ClientIP, "no lookup configured")
}

func TestFlushWithoutSubmitsWritesNothing(t *testing.T) {
	st := newMemStore()
	sub := NewSubmitter(st, SubmitterConfig{UserID: "u1"})
	flush(t, sub)
	_, writes := st.snapshot()
	assert.Empty(t, writes)
}

func TestFlushGivesUpOnStuckWrites(t *testing.T) {
	st := newMemStore()
	st.gate = make(chan struct{})
	defer close(st.gate)
	log := &syncBuffer{}
	sub := NewSubmitter(st, SubmitterConfig{UserID: "u1", Log: log, Timeout: time.Minute})

	sub.Submit(types.Annotation{RecordID: "R1"}, types.ProgressState{Mode: types.ModeCursor, Cursor: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	sub.Flush(ctx)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, log.String(), "sign-out flush stopped with 1 write(s) in flight")
}

func TestLookupIPRunsOnce(t *testing.T) {
	var mu sync.Mutex
	lookups := 0
	st := newMemStore()
	sub := NewSubmitter(st, SubmitterConfig{
		UserID: "u1",
		LookupIP: func(context.Context) string {
			mu.Lock()
			defer mu.Unlock()
			lookups++
			return "198.51.100.1"
		},
	})
	for i := 0; i < 5; i++ {
		sub.Submit(types.Annotation{RecordID: "R"}, types.ProgressState{Mode: types.ModeCursor, Cursor: i + 1})
	}
	flush(t, sub)
	assert.Equal(t, 1, lookups)
}

func TestSignOutFlushesAndCloses(t *testing.T) {
	st := newMemStore(records("R1", "R2")...)
	sub := NewSubmitter(st, SubmitterConfig{UserID: "u1"})
	s := NewSession("u1", st.records, NewCursor(0))
	c := NewController(s, newFakeDisplay(), sub)

	_, _, err := c.Start()
	require.NoError(t, err)
	_, _, err = c.Skip()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.SignOut(ctx)

	assert.True(t, s.Closed())
	_, writes := st.snapshot()
	require.NotEmpty(t, writes)
	assert.Equal(t, 1, writes[len(writes)-1].Cursor)
}
