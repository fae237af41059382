// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queue

import (
	"context"

	"github.com/pdiddy/annotate/pkg/types"
)

// Controller wires user actions to the engine, the preloader, and the
// submitter: each action advances synchronously, shows the next record,
// and leaves persistence to the background.
type Controller struct {
	engine    *Engine
	preloader *Preloader
	submitter *Submitter
}

// NewController builds a controller for s rendering to d. sub may be nil.
func NewController(s *Session, d Display, sub *Submitter) *Controller {
	e := NewEngine(s, sub)
	return &Controller{
		engine:    e,
		preloader: NewPreloader(d, e),
		submitter: sub,
	}
}

// Engine exposes the underlying engine.
func (c *Controller) Engine() *Engine { return c.engine }

// Preloader exposes the underlying preloader.
func (c *Controller) Preloader() *Preloader { return c.preloader }

// Start shows the first unprocessed record. It returns false when the
// queue is already complete.
func (c *Controller) Start() (types.Record, bool, error) {
	return c.showNext()
}

// Submit judges the current record and shows the next one.
func (c *Controller) Submit(j Judgment) (types.Record, bool, error) {
	if _, err := c.engine.Submit(j); err != nil {
		return types.Record{}, false, err
	}
	return c.showNext()
}

// Skip judges the current record as negative on both counts and shows the next one.
func (c *Controller) Skip() (types.Record, bool, error) {
	if _, err := c.engine.Skip(); err != nil {
		return types.Record{}, false, err
	}
	return c.showNext()
}

func (c *Controller) showNext() (types.Record, bool, error) {
	rec, ok := c.engine.Next()
	if !ok {
		c.preloader.Reset()
		return types.Record{}, false, nil
	}
	if err := c.preloader.Show(rec); err != nil {
		return rec, true, err
	}
	return rec, true, nil
}

// SignOut flushes pending writes within ctx and closes the session.
func (c *Controller) SignOut(ctx context.Context) {
	if c.submitter != nil {
		c.submitter.Flush(ctx)
	}
	c.preloader.Reset()
	c.engine.session.Close()
}
