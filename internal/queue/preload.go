// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queue

import "github.com/pdiddy/annotate/pkg/types"

// Surface names one of the two display buffers.
type Surface int

const (
	SurfaceA Surface = 1
	SurfaceB Surface = 2
)

// Other returns the opposite surface.
func (s Surface) Other() Surface {
	if s == SurfaceA {
		return SurfaceB
	}
	return SurfaceA
}

// Display is the presentation capability the preloader drives.
type Display interface {
	// Render loads rec into surface. Rendering the visible surface shows
	// it; rendering the hidden one only prepares it.
	Render(surface Surface, rec types.Record) error

	// Swap makes active the visible surface. An error means the swapped-in
	// surface may not be visible.
	Swap(active Surface) error
}

// Peeker reports the record that follows the one about to be shown.
type Peeker interface {
	Peek() (types.Record, bool)
}

// Preloader keeps the next record ready on the hidden surface so that
// advancing is a swap instead of a load. Correctness never depends on the
// preload: a stale or failed preload falls back to a cold load.
type Preloader struct {
	display   Display
	peeker    Peeker
	active    Surface
	preloaded *types.Record

	// Swaps and ColdLoads count how each Show was served.
	Swaps     int
	ColdLoads int
}

// NewPreloader returns a preloader with SurfaceA visible and nothing preloaded.
func NewPreloader(d Display, p Peeker) *Preloader {
	return &Preloader{display: d, peeker: p, active: SurfaceA}
}

// Active returns the visible surface.
func (p *Preloader) Active() Surface { return p.active }

// Preloaded returns the record waiting on the hidden surface.
func (p *Preloader) Preloaded() (types.Record, bool) {
	if p.preloaded == nil {
		return types.Record{}, false
	}
	return *p.preloaded, true
}

// Show makes rec visible, by swapping when it is the preloaded record and
// by loading it into the visible surface otherwise. It then preloads the
// record after rec. A failed swap or cold load is returned and leaves
// nothing preloaded.
func (p *Preloader) Show(rec types.Record) error {
	if p.preloaded != nil && p.preloaded.ID == rec.ID {
		p.active = p.active.Other()
		if err := p.display.Swap(p.active); err != nil {
			p.preloaded = nil
			return err
		}
		p.Swaps++
	} else {
		if err := p.display.Render(p.active, rec); err != nil {
			p.preloaded = nil
			return err
		}
		p.ColdLoads++
	}
	p.Preload()
	return nil
}

// Preload renders the peeked-ahead record into the hidden surface.
func (p *Preloader) Preload() {
	p.preloaded = nil
	next, ok := p.peeker.Peek()
	if !ok {
		return
	}
	if err := p.display.Render(p.active.Other(), next); err != nil {
		return
	}
	p.preloaded = &next
}

// Reset drops any preloaded record, e.g. when the queue completes.
func (p *Preloader) Reset() { p.preloaded = nil }
