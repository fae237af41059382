// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/annotate/internal/display"
	"github.com/pdiddy/annotate/internal/queue"
	"github.com/pdiddy/annotate/pkg/types"
)

// Summary counts what a loop did.
type Summary struct {
	Saved     int
	Skipped   int
	Completed bool
}

// Loop drives c from line input until the queue completes, the reviewer
// quits, input ends, or ctx is cancelled. Cards are written by the
// controller's display; prompts and status go to out.
func Loop(ctx context.Context, c *queue.Controller, in io.Reader, out io.Writer) (Summary, error) {
	var sum Summary

	rec, ok, err := c.Start()
	if err != nil {
		return sum, fmt.Errorf("showing record: %w", err)
	}
	if !ok {
		display.WriteCompletion(out, c.Engine().Stats())
		sum.Completed = true
		return sum, nil
	}

	lines := readLines(ctx, in)
	var draft Draft
	status(out, c.Engine().Stats(), draft)

	for {
		var line string
		select {
		case <-ctx.Done():
			return sum, nil
		case l, open := <-lines:
			if !open {
				return sum, nil
			}
			line = l
		}

		action, err := draft.Apply(line, len(rec.Authors))
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		switch action {
		case ActionEdit:
			fmt.Fprintln(out, draft.String())
			continue
		case ActionHelp:
			fmt.Fprintln(out, Help)
			continue
		case ActionQuit:
			return sum, nil
		case ActionSave:
			rec, ok, err = c.Submit(draft.Judgment(rec.Authors))
			sum.Saved++
		case ActionSkip:
			rec, ok, err = c.Skip()
			sum.Skipped++
		}
		if err != nil {
			return sum, fmt.Errorf("showing record: %w", err)
		}

		draft = Draft{}
		if !ok {
			display.WriteCompletion(out, c.Engine().Stats())
			sum.Completed = true
			return sum, nil
		}
		status(out, c.Engine().Stats(), draft)
	}
}

func status(w io.Writer, s types.Stats, d Draft) {
	fmt.Fprintf(w, "%s  %s\n> ", display.ProgressLine(s), d)
}

// readLines feeds lines from r until it ends or ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
