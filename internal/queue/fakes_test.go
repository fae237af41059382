// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pdiddy/annotate/pkg/types"
)

var errOffline = errors.New("relay offline")

// memStore is an in-memory Store. Failing writes return errOffline.
type memStore struct {
	mu sync.Mutex

	records     []types.Record
	recordsErr  error
	progress    map[string]types.ProgressState
	progressErr error

	failAnnotations bool
	failProgress    bool
	gate            chan struct{} // when set, annotation writes block until closed

	annotations    []types.Annotation
	progressWrites []types.ProgressState
}

func newMemStore(records ...types.Record) *memStore {
	return &memStore{records: records, progress: map[string]types.ProgressState{}}
}

func (m *memStore) FetchRecords(context.Context) ([]types.Record, error) {
	return m.records, m.recordsErr
}

func (m *memStore) FetchProgress(_ context.Context, userID string) (types.ProgressState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress[userID], m.progressErr
}

func (m *memStore) PersistProgress(_ context.Context, userID string, p types.ProgressState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failProgress {
		return errOffline
	}
	m.progress[userID] = p
	m.progressWrites = append(m.progressWrites, p)
	return nil
}

func (m *memStore) PersistAnnotation(ctx context.Context, a types.Annotation) error {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAnnotations {
		return errOffline
	}
	m.annotations = append(m.annotations, a)
	return nil
}

func (m *memStore) snapshot() ([]types.Annotation, []types.ProgressState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Annotation(nil), m.annotations...),
		append([]types.ProgressState(nil), m.progressWrites...)
}

// fakeDisplay records every Render and Swap.
type fakeDisplay struct {
	surfaces map[Surface]string
	visible  Surface
	renders  []string
	swaps    int
	failOn   string
	failSwap bool
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{surfaces: map[Surface]string{}, visible: SurfaceA}
}

func (d *fakeDisplay) Render(s Surface, rec types.Record) error {
	if rec.ID == d.failOn {
		return fmt.Errorf("cannot load %s", rec.URL)
	}
	d.surfaces[s] = rec.ID
	d.renders = append(d.renders, fmt.Sprintf("%d:%s", s, rec.ID))
	return nil
}

func (d *fakeDisplay) Swap(active Surface) error {
	d.visible = active
	if d.failSwap {
		return fmt.Errorf("surface %d not shown", active)
	}
	d.swaps++
	return nil
}

func (d *fakeDisplay) shown() string { return d.surfaces[d.visible] }

func records(ids ...string) []types.Record {
	out := make([]types.Record, len(ids))
	for i, id := range ids {
		out[i] = types.Record{
			ID:      id,
			Title:   "Title " + id,
			Authors: []string{"Author " + id},
			URL:     "https://example.org/" + id,
		}
	}
	return out
}
