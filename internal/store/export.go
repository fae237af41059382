// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/annotate/pkg/types"
)

// ExportEntry is one annotation with the judged record's metadata.
type ExportEntry struct {
	types.Annotation `yaml:",inline"`

	Record *ExportRecord `json:"record,omitempty" yaml:"record,omitempty"`
}

// ExportRecord holds the record fields included in each export entry.
type ExportRecord struct {
	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors" yaml:"authors"`
	Journal string   `json:"journal_name" yaml:"journal_name"`
	Year    string   `json:"publication_year" yaml:"publication_year"`
}

// ExportYAML writes the annotations matching f to w as a YAML list.
func (l *Local) ExportYAML(ctx context.Context, w io.Writer, f AnnotationFilter) error {
	entries, err := l.exportEntries(ctx, f)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the annotations matching f to w as an indented JSON array.
func (l *Local) ExportJSON(ctx context.Context, w io.Writer, f AnnotationFilter) error {
	entries, err := l.exportEntries(ctx, f)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (l *Local) exportEntries(ctx context.Context, f AnnotationFilter) ([]ExportEntry, error) {
	annotations, err := l.Annotations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	records, err := l.FetchRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	byID := make(map[string]types.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	entries := make([]ExportEntry, len(annotations))
	for i, a := range annotations {
		entries[i] = ExportEntry{Annotation: a}
		if r, ok := byID[a.RecordID]; ok {
			entries[i].Record = &ExportRecord{
				Title:   r.Title,
				Authors: r.Authors,
				Journal: r.JournalName,
				Year:    r.PublicationYear,
			}
		}
	}
	return entries, nil
}
