// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the annotation queue.
// Records come from the remote store, annotations and progress flow back to it.
package types

import "time"

// Record is one bibliographic item to be judged. Records are immutable once
// loaded; ID is the identity used by progress tracking.
type Record struct {
	// ID identifies the record within a session. Uniqueness is assumed, not enforced.
	ID string `json:"id" yaml:"id"`

	// Title is the work title.
	Title string `json:"title" yaml:"title"`

	// Authors lists author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// URL is the page shown to the reviewer alongside the metadata.
	URL string `json:"url" yaml:"url"`

	// JournalName is the journal or venue.
	JournalName string `json:"journal_name" yaml:"journal_name"`

	// PublicationYear is kept as text; sources mix "2021" and "n/a".
	PublicationYear string `json:"publication_year" yaml:"publication_year"`

	// Publisher is the publishing house, when known.
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
}

// Annotation is one reviewer judgment on a record. Annotations are
// write-once and append-only at the store.
type Annotation struct {
	// RecordID is the judged record's ID.
	RecordID string `json:"item_id" yaml:"item_id"`

	// WordMention is the "word mentioned" judgment.
	WordMention bool `json:"word_mention" yaml:"word_mention"`

	// AuthorAffiliation is the "author affiliation" judgment. It is true
	// whenever AffiliatedAuthors is non-empty.
	AuthorAffiliation bool `json:"author_affiliation" yaml:"author_affiliation"`

	// AffiliatedAuthors names the authors the reviewer marked as affiliated.
	AffiliatedAuthors []string `json:"affiliated_authors,omitempty" yaml:"affiliated_authors,omitempty"`

	// UserID is the session identity of the reviewer.
	UserID string `json:"user_id" yaml:"user_id"`

	// SessionID distinguishes sign-ins of the same user.
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty"`

	// ClientIP is the caller's public address, or "unknown".
	ClientIP string `json:"ip" yaml:"ip"`

	// Timestamp is the ISO-8601 time the judgment was made.
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// Skipped reports whether the annotation carries no positive judgment.
func (a Annotation) Skipped() bool {
	return !a.WordMention && !a.AuthorAffiliation && len(a.AffiliatedAuthors) == 0
}

// FormatTimestamp renders t the way annotations carry it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
