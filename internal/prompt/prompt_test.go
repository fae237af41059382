// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/annotate/internal/queue"
)

func TestApplyActions(t *testing.T) {
	tests := []struct {
		line string
		want Action
	}{
		{"", ActionSave},
		{"   ", ActionSave},
		{"s", ActionSkip},
		{"SKIP", ActionSkip},
		{"q", ActionQuit},
		{"?", ActionHelp},
		{"w", ActionEdit},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			var d Draft
			got, err := d.Apply(tt.line, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyEdits(t *testing.T) {
	var d Draft

	_, err := d.Apply("w", 3)
	require.NoError(t, err)
	assert.True(t, d.WordMention)

	_, err = d.Apply("a:3,1,3", 3)
	require.NoError(t, err)
	assert.True(t, d.AuthorAffiliation)
	assert.Equal(t, []int{1, 3}, d.Authors)

	_, err = d.Apply("w a", 3)
	require.NoError(t, err)
	assert.False(t, d.WordMention)
	assert.False(t, d.AuthorAffiliation)
	assert.Empty(t, d.Authors, "clearing affiliation drops selected authors")

	_, err = d.Apply("a", 3)
	require.NoError(t, err)
	assert.True(t, d.AuthorAffiliation)
	assert.Empty(t, d.Authors)
}

func TestApplyInvalidLeavesDraft(t *testing.T) {
	d := Draft{WordMention: true}

	_, err := d.Apply("a:4", 3)
	assert.ErrorContains(t, err, "out of range")
	_, err = d.Apply("w a:x", 3)
	assert.ErrorContains(t, err, "not a number")
	_, err = d.Apply("w z", 3)
	assert.ErrorContains(t, err, "unknown command")

	assert.Equal(t, Draft{WordMention: true}, d)
}

func TestDraftJudgment(t *testing.T) {
	authors := []string{"Ann", "Bob", "Cy"}

	assert.Equal(t, queue.Judgment{}, Draft{}.Judgment(authors))
	assert.Equal(t,
		queue.Judgment{WordMention: true, AuthorAffiliation: true, AffiliatedAuthors: []string{"Ann", "Cy"}},
		Draft{WordMention: true, Authors: []int{1, 3}}.Judgment(authors))
	assert.Equal(t,
		queue.Judgment{AuthorAffiliation: true},
		Draft{AuthorAffiliation: true}.Judgment(authors))
}

func TestDraftString(t *testing.T) {
	assert.Equal(t, "[x] word mentioned  [ ] author affiliation", Draft{WordMention: true}.String())
	assert.Equal(t, "[ ] word mentioned  [x] author affiliation (authors 2)",
		Draft{AuthorAffiliation: true, Authors: []int{2}}.String())
}
