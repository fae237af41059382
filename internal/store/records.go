// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/annotate/pkg/types"
)

// Data sheet columns (zero-based).
const (
	colID        = 0
	colTitle     = 4
	colAuthors   = 5
	colURL       = 6
	colPublisher = 7
	colJournal   = 10
	colYear      = 11
)

const (
	untitled     = "Untitled"
	notSpecified = "Unknown"
)

// RecordsFromRows maps data sheet rows (header already removed) to records.
// Rows without an id get "row_<n>", n being the zero-based data row.
// Authors are a JSON array of names; any other non-empty value is taken as
// a single author.
func RecordsFromRows(rows [][]string) []types.Record {
	records := make([]types.Record, 0, len(rows))
	for i, row := range rows {
		rec := types.Record{
			ID:              orDefault(cell(row, colID), fmt.Sprintf("row_%d", i)),
			Title:           orDefault(cell(row, colTitle), untitled),
			Authors:         parseAuthors(cell(row, colAuthors)),
			URL:             cell(row, colURL),
			Publisher:       cell(row, colPublisher),
			JournalName:     orDefault(cell(row, colJournal), notSpecified),
			PublicationYear: orDefault(cell(row, colYear), notSpecified),
		}
		records = append(records, rec)
	}
	return records
}

// cell returns row[i] trimmed, or "" past the end of a short row.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func parseAuthors(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var authors []string
	if err := json.Unmarshal([]byte(raw), &authors); err != nil {
		return []string{raw}
	}
	out := authors[:0]
	for _, a := range authors {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// recordsFile is the YAML import format: either a bare list of records or
// a mapping with a records key.
type recordsFile struct {
	Records []types.Record `yaml:"records"`
}

// LoadRecordsFile reads records from a YAML file. Records without an id
// are rejected, since ids key all progress.
func LoadRecordsFile(path string) ([]types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	var records []types.Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		var f recordsFile
		if err2 := yaml.Unmarshal(data, &f); err2 != nil {
			return nil, fmt.Errorf("parsing records %s: %w", path, err)
		}
		records = f.Records
	}

	for i, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("record %d in %s has no id", i+1, path)
		}
		if r.Authors == nil {
			records[i].Authors = []string{}
		}
	}
	return records, nil
}
