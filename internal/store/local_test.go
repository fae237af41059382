// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/annotate/pkg/types"
)

func openTestLocal(t *testing.T) *Local {
	t.Helper()
	l, err := OpenLocal(types.LocalStoreConfig{Path: filepath.Join(t.TempDir(), "db", "annotate.db")})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func sampleRecords() []types.Record {
	return []types.Record{
		{ID: "a", Title: "Alpha", Authors: []string{"Ann"}, JournalName: "J1", PublicationYear: "2020"},
		{ID: "b", Title: "Beta", Authors: []string{"Bob", "Bea"}},
		{ID: "c", Title: "Gamma"},
	}
}

func TestLocalImportAndFetch(t *testing.T) {
	ctx := context.Background()
	l := openTestLocal(t)

	sum, err := l.ImportRecords(ctx, sampleRecords(), false)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Added: 3}, sum)

	got, err := l.FetchRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
	assert.Equal(t, []string{"Bob", "Bea"}, got[1].Authors)
	assert.Equal(t, []string{}, got[2].Authors)

	// Re-import updates in place and appends new ids at the end.
	sum, err = l.ImportRecords(ctx, []types.Record{
		{ID: "d", Title: "Delta"},
		{ID: "a", Title: "Alpha v2"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Added: 1, Updated: 1}, sum)

	got, err = l.FetchRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(got))
	assert.Equal(t, "Alpha v2", got[0].Title)

	sum, err = l.ImportRecords(ctx, []types.Record{{ID: "z"}}, true)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Added: 1}, sum)
	got, err = l.FetchRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, ids(got))
}

func TestLocalFetchRecordsEmpty(t *testing.T) {
	got, err := openTestLocal(t).FetchRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalProgress(t *testing.T) {
	ctx := context.Background()
	l := openTestLocal(t)

	p, err := l.FetchProgress(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, types.ProgressState{}, p, "unknown user has no progress")

	require.NoError(t, l.PersistProgress(ctx, "alice", types.ProgressState{Mode: types.ModeCursor, Cursor: 4}))
	p, err = l.FetchProgress(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, types.ProgressState{Mode: types.ModeCursor, Cursor: 4}, p)

	// Switching mode replaces the row entirely.
	scan := types.ProgressState{Mode: types.ModeScan, AnnotatedIDs: []string{"a", "c"}}
	require.NoError(t, l.PersistProgress(ctx, "alice", scan))
	p, err = l.FetchProgress(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, scan, p)

	p, err = l.FetchProgress(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, types.ProgressState{}, p)
}

func TestLocalPersistProgressRejects(t *testing.T) {
	ctx := context.Background()
	l := openTestLocal(t)

	assert.Error(t, l.PersistProgress(ctx, "", types.EmptyProgress(types.ModeCursor)))
	err := l.PersistProgress(ctx, "alice", types.ProgressState{Mode: types.ModeCursor, Cursor: 1, AnnotatedIDs: []string{"a"}})
	assert.ErrorIs(t, err, types.ErrHybridProgress)
}

func TestLocalAnnotations(t *testing.T) {
	ctx := context.Background()
	l := openTestLocal(t)

	a1 := types.Annotation{RecordID: "a", WordMention: true, UserID: "alice", SessionID: "s1", ClientIP: "1.2.3.4", Timestamp: "2026-03-01T12:00:00Z"}
	a2 := types.Annotation{RecordID: "b", AuthorAffiliation: true, AffiliatedAuthors: []string{"Bob"}, UserID: "bob", ClientIP: "unknown", Timestamp: "2026-03-01T12:01:00Z"}
	a3 := types.Annotation{RecordID: "a", UserID: "bob", Timestamp: "2026-03-01T12:02:00Z"}
	for _, a := range []types.Annotation{a1, a2, a3} {
		require.NoError(t, l.PersistAnnotation(ctx, a))
	}

	all, err := l.Annotations(ctx, AnnotationFilter{})
	require.NoError(t, err)
	assert.Equal(t, []types.Annotation{a1, a2, a3}, all)

	bobs, err := l.Annotations(ctx, AnnotationFilter{UserID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, []types.Annotation{a2, a3}, bobs)

	onA, err := l.Annotations(ctx, AnnotationFilter{UserID: "bob", RecordID: "a"})
	require.NoError(t, err)
	assert.Equal(t, []types.Annotation{a3}, onA)

	assert.Error(t, l.PersistAnnotation(ctx, types.Annotation{UserID: "x"}))
}

func TestLocalConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	l := openTestLocal(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.PersistAnnotation(ctx, types.Annotation{RecordID: "r", UserID: "u", Timestamp: "t"}))
			assert.NoError(t, l.PersistProgress(ctx, "u", types.ProgressState{Mode: types.ModeCursor, Cursor: i}))
		}(i)
	}
	wg.Wait()

	all, err := l.Annotations(ctx, AnnotationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

func TestLocalExport(t *testing.T) {
	ctx := context.Background()
	l := openTestLocal(t)
	_, err := l.ImportRecords(ctx, sampleRecords(), false)
	require.NoError(t, err)
	require.NoError(t, l.PersistAnnotation(ctx, types.Annotation{RecordID: "a", WordMention: true, UserID: "alice", Timestamp: "t1"}))
	require.NoError(t, l.PersistAnnotation(ctx, types.Annotation{RecordID: "gone", UserID: "alice", Timestamp: "t2"}))

	var jsonOut bytes.Buffer
	require.NoError(t, l.ExportJSON(ctx, &jsonOut, AnnotationFilter{}))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "a", decoded[0]["item_id"])
	assert.Equal(t, true, decoded[0]["word_mention"])
	assert.Equal(t, "Alpha", decoded[0]["record"].(map[string]any)["title"])
	assert.NotContains(t, decoded[1], "record", "unknown record has no metadata")

	var yamlOut bytes.Buffer
	require.NoError(t, l.ExportYAML(ctx, &yamlOut, AnnotationFilter{RecordID: "a"}))
	var entries []map[string]any
	require.NoError(t, yaml.Unmarshal(yamlOut.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0]["user_id"])
	assert.Equal(t, "J1", entries[0]["record"].(map[string]any)["journal_name"])
}

func ids(recs []types.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
