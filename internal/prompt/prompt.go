// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt parses the reviewer's single-letter commands into a
// judgment draft for the current record.
package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/annotate/internal/queue"
)

// Action is what a command line asks the session to do.
type Action int

const (
	// ActionEdit changed the draft; keep prompting.
	ActionEdit Action = iota
	// ActionSave submits the draft.
	ActionSave
	// ActionSkip submits a negative judgment.
	ActionSkip
	// ActionQuit ends the session.
	ActionQuit
	// ActionHelp asks for the command list.
	ActionHelp
)

// Help lists the commands.
const Help = `commands:
  w          toggle "word mentioned"
  a          toggle "author affiliation"
  a:1,3      mark authors 1 and 3 as affiliated (a:- clears)
  <enter>    save and go to the next record
  s          skip (save as negative)
  q          quit
  ?          show this help
Several commands can share a line, e.g. "w a:2".`

// Draft is the judgment being built for the current record.
type Draft struct {
	WordMention       bool
	AuthorAffiliation bool
	// Authors holds 1-based author positions, ascending.
	Authors []int
}

// Apply interprets one input line against a record with nAuthors authors.
// Edits accumulate in d. An invalid token leaves d unchanged.
func (d *Draft) Apply(line string, nAuthors int) (Action, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return ActionSave, nil
	}
	if len(fields) == 1 {
		switch fields[0] {
		case "s", "skip":
			return ActionSkip, nil
		case "q", "quit":
			return ActionQuit, nil
		case "?", "h", "help":
			return ActionHelp, nil
		}
	}

	next := *d
	next.Authors = append([]int(nil), d.Authors...)
	for _, f := range fields {
		switch {
		case f == "w":
			next.WordMention = !next.WordMention
		case f == "a":
			next.AuthorAffiliation = !next.AuthorAffiliation
			if !next.AuthorAffiliation {
				next.Authors = nil
			}
		case strings.HasPrefix(f, "a:"):
			authors, err := parseAuthors(strings.TrimPrefix(f, "a:"), nAuthors)
			if err != nil {
				return ActionEdit, err
			}
			next.Authors = authors
			next.AuthorAffiliation = len(authors) > 0
		default:
			return ActionEdit, fmt.Errorf("unknown command %q (? for help)", f)
		}
	}
	*d = next
	return ActionEdit, nil
}

func parseAuthors(list string, n int) ([]int, error) {
	if list == "-" || list == "" {
		return nil, nil
	}
	seen := make(map[int]bool)
	var out []int
	for _, part := range strings.Split(list, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("author %q is not a number", part)
		}
		if i < 1 || i > n {
			return nil, fmt.Errorf("author %d out of range (record has %d)", i, n)
		}
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out, nil
}

// Judgment resolves the draft against the record's author names.
func (d Draft) Judgment(authors []string) queue.Judgment {
	j := queue.Judgment{
		WordMention:       d.WordMention,
		AuthorAffiliation: d.AuthorAffiliation || len(d.Authors) > 0,
	}
	for _, i := range d.Authors {
		if i >= 1 && i <= len(authors) {
			j.AffiliatedAuthors = append(j.AffiliatedAuthors, authors[i-1])
		}
	}
	return j
}

// String summarises the draft on one line.
func (d Draft) String() string {
	mark := func(b bool) string {
		if b {
			return "x"
		}
		return " "
	}
	s := fmt.Sprintf("[%s] word mentioned  [%s] author affiliation", mark(d.WordMention), mark(d.AuthorAffiliation))
	if len(d.Authors) > 0 {
		parts := make([]string, len(d.Authors))
		for i, a := range d.Authors {
			parts[i] = strconv.Itoa(a)
		}
		s += " (authors " + strings.Join(parts, ",") + ")"
	}
	return s
}
