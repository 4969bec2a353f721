// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists extracted transcripts in SQLite and searches
// their messages with a full-text index.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/transcript-clean/pkg/types"
)

const (
	dbFile            = "transcripts.db"
	defaultMaxResults = 20
)

// Store manages the transcript archive database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the archive database at cfg.Dir/transcripts.db
// and creates the schema if it does not exist.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			source_path TEXT,
			extracted_at TEXT,
			message_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			UNIQUE(transcript_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_role ON messages(role)`,
		// FTS4 ships with the default go-sqlite3 build; FTS5 needs a build tag.
		`CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts4(text)`,
		`CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
			INSERT INTO messages_fts(docid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
			DELETE FROM messages_fts WHERE docid = old.rowid;
		END`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores t, replacing any messages previously archived under t.ID.
// It reports whether an existing transcript was replaced.
func (s *Store) Save(ctx context.Context, t types.Transcript) (replaced bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM transcripts WHERE id = ?`, t.ID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking transcript %s: %w", t.ID, err)
	}
	replaced = exists > 0

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE transcript_id = ?`, t.ID); err != nil {
		return false, fmt.Errorf("deleting old messages: %w", err)
	}

	extractedAt := ""
	if !t.ExtractedAt.IsZero() {
		extractedAt = t.ExtractedAt.UTC().Format(time.RFC3339)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transcripts (id, source_path, extracted_at, message_count)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source_path=excluded.source_path, extracted_at=excluded.extracted_at,
			message_count=excluded.message_count`,
		t.ID, t.SourcePath, extractedAt, len(t.Messages),
	); err != nil {
		return false, fmt.Errorf("upserting transcript: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (transcript_id, position, role, text) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return false, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range t.Messages {
		if _, err := stmt.ExecContext(ctx, t.ID, i, string(m.Role), m.Text); err != nil {
			return false, fmt.Errorf("inserting message %d of %s: %w", i, t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transcript %s: %w", t.ID, err)
	}
	return replaced, nil
}

// Transcripts returns archived transcript records, without messages,
// ordered by ID. A non-empty id restricts the result to that transcript.
func (s *Store) Transcripts(ctx context.Context, id string) ([]types.Transcript, error) {
	query := `SELECT id, source_path, extracted_at FROM transcripts`
	var args []any
	if id != "" {
		query += ` WHERE id = ?`
		args = append(args, id)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transcripts: %w", err)
	}
	defer rows.Close()

	var out []types.Transcript
	for rows.Next() {
		var (
			t           types.Transcript
			sourcePath  sql.NullString
			extractedAt sql.NullString
		)
		if err := rows.Scan(&t.ID, &sourcePath, &extractedAt); err != nil {
			return nil, fmt.Errorf("scanning transcript: %w", err)
		}
		t.SourcePath = sourcePath.String
		if extractedAt.String != "" {
			if ts, err := time.Parse(time.RFC3339, extractedAt.String); err == nil {
				t.ExtractedAt = ts
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
