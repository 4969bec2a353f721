// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/transcript-clean/pkg/types"
)

// QueryOptions holds parameters for archive searches.
type QueryOptions struct {
	// Query is an FTS4 full-text match expression.
	Query string

	// Role filters by message author.
	Role types.Role

	// TranscriptID filters by transcript.
	TranscriptID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Role == "" && q.TranscriptID == ""
}

// Result is an archived message with its transcript context.
type Result struct {
	types.Message
	TranscriptID string `json:"transcript_id" yaml:"transcript_id"`
	SourcePath   string `json:"source_path" yaml:"source_path"`
}

// Search returns archived messages matching opts, ordered by transcript and
// position. At least one search term or filter is required.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]Result, error) {
	if opts.IsEmpty() {
		return nil, fmt.Errorf("query or filter required: provide a search query, role, or transcript")
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}
	return s.query(ctx, opts, maxResults)
}

// query runs the filtered message query. A non-positive limit returns every
// matching row.
func (s *Store) query(ctx context.Context, opts QueryOptions, limit int) ([]Result, error) {
	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(
		`SELECT m.transcript_id, m.position, m.role, m.text, COALESCE(t.source_path, '')
		FROM messages m
		JOIN transcripts t ON t.id = m.transcript_id
		WHERE 1=1`)

	if opts.Query != "" {
		qb.WriteString(` AND m.rowid IN (SELECT docid FROM messages_fts WHERE messages_fts MATCH ?)`)
		args = append(args, opts.Query)
	}
	if opts.Role != "" {
		qb.WriteString(` AND m.role = ?`)
		args = append(args, string(opts.Role))
	}
	if opts.TranscriptID != "" {
		qb.WriteString(` AND m.transcript_id = ?`)
		args = append(args, opts.TranscriptID)
	}

	qb.WriteString(` ORDER BY m.transcript_id, m.position`)
	if limit > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r    Result
			role string
		)
		if err := rows.Scan(&r.TranscriptID, &r.Position, &role, &r.Text, &r.SourcePath); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.Role = types.Role(role)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return results, nil
}
