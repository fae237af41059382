// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queue

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pdiddy/annotate/pkg/types"
)

// AnnotationWriter receives annotations. Both the remote store and the
// local journal implement it.
type AnnotationWriter interface {
	PersistAnnotation(ctx context.Context, a types.Annotation) error
}

// SubmitterConfig configures a Submitter.
type SubmitterConfig struct {
	// UserID keys progress writes.
	UserID string

	// Journal, when set, receives every annotation before the store does.
	Journal AnnotationWriter

	// LookupIP resolves the client's public address once per session.
	// Nil leaves ClientIP as "unknown".
	LookupIP func(ctx context.Context) string

	// Timeout bounds each background write (default 30s).
	Timeout time.Duration

	// Log receives one warning line per failed write.
	Log io.Writer
}

// Submitter persists judgments in the background. Every write is
// best-effort: failures are logged and swallowed, never retried, and never
// roll back the session. Progress writes are serialised and never go
// backwards, even when annotation writes finish out of order.
type Submitter struct {
	store    Store
	cfg      SubmitterConfig
	clientIP func() string

	wg       sync.WaitGroup
	inFlight atomic.Int32

	mu      sync.Mutex
	latest  types.ProgressState
	version int

	// progressMu serialises progress writes; written is guarded by it.
	progressMu sync.Mutex
	written    int
}

// NewSubmitter returns a submitter writing to st.
func NewSubmitter(st Store, cfg SubmitterConfig) *Submitter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = io.Discard
	}
	s := &Submitter{store: st, cfg: cfg}
	s.clientIP = sync.OnceValue(func() string {
		if cfg.LookupIP == nil {
			return unknownIP
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		return cfg.LookupIP(ctx)
	})
	return s
}

const unknownIP = "unknown"

// Submit hands a off for background persistence together with the
// progress state reached after it. It returns immediately.
func (s *Submitter) Submit(a types.Annotation, progress types.ProgressState) {
	s.mu.Lock()
	s.latest = progress
	s.version++
	s.mu.Unlock()

	s.wg.Add(1)
	s.inFlight.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Add(-1)

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()

		if a.ClientIP == "" {
			a.ClientIP = s.clientIP()
		}
		if s.cfg.Journal != nil {
			if err := s.cfg.Journal.PersistAnnotation(ctx, a); err != nil {
				fmt.Fprintf(s.cfg.Log, "warning: journaling annotation %s: %v\n", a.RecordID, err)
			}
		}
		if err := s.store.PersistAnnotation(ctx, a); err != nil {
			fmt.Fprintf(s.cfg.Log, "warning: saving annotation %s: %v\n", a.RecordID, err)
		}
		s.persistLatest(ctx)
	}()
}

// persistLatest writes the newest progress snapshot unless a write of it,
// or of something newer, already succeeded.
func (s *Submitter) persistLatest(ctx context.Context) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()

	s.mu.Lock()
	p, version := s.latest, s.version
	s.mu.Unlock()

	if version <= s.written {
		return
	}
	if err := s.store.PersistProgress(ctx, s.cfg.UserID, p); err != nil {
		fmt.Fprintf(s.cfg.Log, "warning: saving progress for %s: %v\n", s.cfg.UserID, err)
		return
	}
	s.written = version
}

// InFlight returns the number of background writes not yet finished.
func (s *Submitter) InFlight() int { return int(s.inFlight.Load()) }

// Flush is the sign-out flush: it attempts a final write of the newest
// progress and waits for in-flight writes until ctx is done. Writes still
// running after that are abandoned, not cancelled.
func (s *Submitter) Flush(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.persistLatest(ctx)
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		fmt.Fprintf(s.cfg.Log, "warning: sign-out flush stopped with %d write(s) in flight: %v\n",
			s.InFlight(), ctx.Err())
	}
}
