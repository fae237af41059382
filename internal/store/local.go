// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/annotate/pkg/types"
)

// DefaultLocalPath is the database file used when none is configured.
const DefaultLocalPath = "annotate.db"

// Local is the SQLite store. It keeps the record list in import order,
// appends annotations, and holds one progress row per user.
type Local struct {
	db   *sql.DB
	path string
}

// OpenLocal opens or creates the database at cfg.Path and its schema.
func OpenLocal(cfg types.LocalStoreConfig) (*Local, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultLocalPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Background submissions and the relay handler write concurrently.
	db.SetMaxOpenConns(1)

	l := &Local{db: db, path: path}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Path returns the database file.
func (l *Local) Path() string {
	return l.path
}

// Close releases the database connection.
func (l *Local) Close() error {
	return l.db.Close()
}

func (l *Local) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			position INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT,
			authors TEXT,
			url TEXT,
			journal_name TEXT,
			publication_year TEXT,
			publisher TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS annotations (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id TEXT NOT NULL,
			word_mention INTEGER NOT NULL,
			author_affiliation INTEGER NOT NULL,
			affiliated_authors TEXT,
			user_id TEXT NOT NULL,
			session_id TEXT,
			ip TEXT,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_user ON annotations(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_item ON annotations(item_id)`,
		`CREATE TABLE IF NOT EXISTS progress (
			user_id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			last_index INTEGER,
			annotated_ids TEXT,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// FetchRecords returns every record in import order.
func (l *Local) FetchRecords(ctx context.Context) ([]types.Record, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, title, authors, url, journal_name, publication_year, publisher
		 FROM records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var (
			r           types.Record
			authorsJSON string
		)
		if err := rows.Scan(&r.ID, &r.Title, &authorsJSON, &r.URL,
			&r.JournalName, &r.PublicationYear, &r.Publisher); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.Authors = []string{}
		if authorsJSON != "" {
			if err := json.Unmarshal([]byte(authorsJSON), &r.Authors); err != nil {
				return nil, fmt.Errorf("decoding authors of %s: %w", r.ID, err)
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ImportSummary counts the outcome of an import.
type ImportSummary struct {
	Added   int
	Updated int
}

// ImportRecords stores recs. Existing records with the same id are updated
// in place and keep their position; new ones are appended. With replace,
// the record table is emptied first. Annotations and progress are never
// touched.
func (l *Local) ImportRecords(ctx context.Context, recs []types.Record, replace bool) (ImportSummary, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
			return ImportSummary{}, fmt.Errorf("clearing records: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, title, authors, url, journal_name, publication_year, publisher)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors, url=excluded.url,
			journal_name=excluded.journal_name, publication_year=excluded.publication_year,
			publisher=excluded.publisher`)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var summary ImportSummary
	for _, r := range recs {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM records WHERE id = ?`, r.ID).Scan(&exists); err != nil {
			return ImportSummary{}, fmt.Errorf("checking record %s: %w", r.ID, err)
		}

		authors := r.Authors
		if authors == nil {
			authors = []string{}
		}
		authorsJSON, _ := json.Marshal(authors)
		if _, err := stmt.ExecContext(ctx, r.ID, r.Title, string(authorsJSON), r.URL,
			r.JournalName, r.PublicationYear, r.Publisher); err != nil {
			return ImportSummary{}, fmt.Errorf("inserting record %s: %w", r.ID, err)
		}

		if exists > 0 {
			summary.Updated++
		} else {
			summary.Added++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportSummary{}, fmt.Errorf("committing import: %w", err)
	}
	return summary, nil
}

// FetchProgress returns userID's stored progress. A user with no row has
// the zero state, which callers treat as nothing annotated.
func (l *Local) FetchProgress(ctx context.Context, userID string) (types.ProgressState, error) {
	var (
		mode      string
		lastIndex sql.NullInt64
		idsJSON   sql.NullString
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT mode, last_index, annotated_ids FROM progress WHERE user_id = ?`, userID,
	).Scan(&mode, &lastIndex, &idsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ProgressState{}, nil
	}
	if err != nil {
		return types.ProgressState{}, fmt.Errorf("querying progress for %s: %w", userID, err)
	}

	p := types.ProgressState{Mode: types.ProgressMode(mode)}
	if lastIndex.Valid {
		p.Cursor = int(lastIndex.Int64)
	}
	if idsJSON.Valid && idsJSON.String != "" {
		if err := json.Unmarshal([]byte(idsJSON.String), &p.AnnotatedIDs); err != nil {
			return types.ProgressState{}, fmt.Errorf("decoding annotated ids for %s: %w", userID, err)
		}
	}
	return p, nil
}

// PersistProgress replaces userID's progress with p.
func (l *Local) PersistProgress(ctx context.Context, userID string, p types.ProgressState) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("persisting progress: empty user id")
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("persisting progress for %s: %w", userID, err)
	}

	var (
		lastIndex sql.NullInt64
		idsJSON   sql.NullString
	)
	if p.Mode == types.ModeScan {
		data, _ := json.Marshal(p.AnnotatedIDs)
		idsJSON = sql.NullString{String: string(data), Valid: true}
	} else {
		lastIndex = sql.NullInt64{Int64: int64(p.Cursor), Valid: true}
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO progress (user_id, mode, last_index, annotated_ids, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			mode=excluded.mode, last_index=excluded.last_index,
			annotated_ids=excluded.annotated_ids, updated_at=excluded.updated_at`,
		userID, string(p.Mode), lastIndex, idsJSON, types.FormatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("persisting progress for %s: %w", userID, err)
	}
	return nil
}

// PersistAnnotation appends a. Annotations are never updated.
func (l *Local) PersistAnnotation(ctx context.Context, a types.Annotation) error {
	if a.RecordID == "" {
		return fmt.Errorf("persisting annotation: empty record id")
	}
	authors := a.AffiliatedAuthors
	if authors == nil {
		authors = []string{}
	}
	authorsJSON, _ := json.Marshal(authors)

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO annotations
			(item_id, word_mention, author_affiliation, affiliated_authors, user_id, session_id, ip, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RecordID, a.WordMention, a.AuthorAffiliation, string(authorsJSON),
		a.UserID, a.SessionID, a.ClientIP, a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("persisting annotation %s: %w", a.RecordID, err)
	}
	return nil
}

// AnnotationFilter narrows Annotations. Zero fields match everything.
type AnnotationFilter struct {
	UserID   string
	RecordID string
}

// Annotations returns stored annotations in write order.
func (l *Local) Annotations(ctx context.Context, f AnnotationFilter) ([]types.Annotation, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.RecordID != "" {
		where = append(where, "item_id = ?")
		args = append(args, f.RecordID)
	}

	query := `SELECT item_id, word_mention, author_affiliation, affiliated_authors,
		user_id, session_id, ip, timestamp FROM annotations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying annotations: %w", err)
	}
	defer rows.Close()

	var out []types.Annotation
	for rows.Next() {
		var (
			a                   types.Annotation
			authorsJSON         string
			sessionID, clientIP sql.NullString
		)
		if err := rows.Scan(&a.RecordID, &a.WordMention, &a.AuthorAffiliation, &authorsJSON,
			&a.UserID, &sessionID, &clientIP, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		a.SessionID = sessionID.String
		a.ClientIP = clientIP.String
		if authorsJSON != "" && authorsJSON != "[]" {
			if err := json.Unmarshal([]byte(authorsJSON), &a.AffiliatedAuthors); err != nil {
				return nil, fmt.Errorf("decoding affiliated authors: %w", err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
