// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package display renders records as plain-text cards on a terminal.
package display

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/annotate/internal/queue"
	"github.com/pdiddy/annotate/pkg/types"
)

const ruleWidth = 72

// Terminal is a two-surface display over a writer. The visible surface is
// written out when rendered; the hidden one is only buffered until a swap
// makes it visible.
type Terminal struct {
	w        io.Writer
	surfaces map[queue.Surface][]byte
	active   queue.Surface
}

// NewTerminal returns a terminal display writing to w with SurfaceA visible.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w:        w,
		surfaces: make(map[queue.Surface][]byte, 2),
		active:   queue.SurfaceA,
	}
}

// Render formats rec into surface and writes it out when surface is visible.
func (t *Terminal) Render(surface queue.Surface, rec types.Record) error {
	var buf bytes.Buffer
	WriteCard(&buf, rec)
	t.surfaces[surface] = buf.Bytes()
	if surface != t.active {
		return nil
	}
	_, err := t.w.Write(t.surfaces[surface])
	return err
}

// Swap makes active visible and writes its buffered card.
func (t *Terminal) Swap(active queue.Surface) error {
	t.active = active
	_, err := t.w.Write(t.surfaces[active])
	return err
}

// Buffered returns the card held by surface.
func (t *Terminal) Buffered(surface queue.Surface) string {
	return string(t.surfaces[surface])
}

// WriteCard writes the record card. Authors are numbered from 1 so they
// can be selected by position.
func WriteCard(w io.Writer, rec types.Record) {
	rule := strings.Repeat("─", ruleWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s\n", rec.Title)
	fmt.Fprintf(w, "id: %s\n\n", rec.ID)

	if len(rec.Authors) == 0 {
		fmt.Fprintln(w, "Authors:   (none listed)")
	} else {
		fmt.Fprintln(w, "Authors:")
		for i, a := range rec.Authors {
			fmt.Fprintf(w, "  %2d. %s\n", i+1, a)
		}
	}
	fmt.Fprintf(w, "Journal:   %s\n", rec.JournalName)
	fmt.Fprintf(w, "Year:      %s\n", rec.PublicationYear)
	if rec.Publisher != "" {
		fmt.Fprintf(w, "Publisher: %s\n", rec.Publisher)
	}
	if rec.URL != "" {
		fmt.Fprintf(w, "URL:       %s\n", rec.URL)
	}
	fmt.Fprintln(w, rule)
}

// ProgressLine formats stats as "[####......] 12/40 (30%)".
func ProgressLine(s types.Stats) string {
	const width = 20
	filled := 0
	if s.Total > 0 {
		filled = s.Annotated * width / s.Total
	}
	return fmt.Sprintf("[%s%s] %d/%d (%.0f%%)",
		strings.Repeat("#", filled), strings.Repeat(".", width-filled),
		s.Annotated, s.Total, s.Percent())
}

// WriteCompletion writes the end-of-queue message.
func WriteCompletion(w io.Writer, s types.Stats) {
	fmt.Fprintln(w, "All records are annotated. Thank you!")
	fmt.Fprintf(w, "%s\n", ProgressLine(s))
}
