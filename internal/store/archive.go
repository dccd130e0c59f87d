package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/weftlab/weft/internal/graph"
	"github.com/weftlab/weft/internal/validate"
)

// ErrNotFound is returned when a lookup misses the archive.
var ErrNotFound = errors.New("store: not found")

// Run is one archived validation pass.
type Run struct {
	ID         int64            `json:"id"`
	DocumentID string           `json:"document_id"`
	IssueCount int              `json:"issue_count"`
	Issues     []validate.Issue `json:"issues"`
	CreatedAt  string           `json:"created_at"`
}

// PutDocument archives a document under its content hash and returns the
// hash. The stored body is the canonical JSON form, so two documents that
// differ only in key order or whitespace share one archive row; repeated
// puts are no-ops.
func (s *Store) PutDocument(ctx context.Context, doc []byte) (string, error) {
	canonical, err := graph.CanonicalizeJSON(doc)
	if err != nil {
		return "", fmt.Errorf("store: put document: %w", err)
	}
	id, err := graph.DocumentHash(doc)
	if err != nil {
		return "", fmt.Errorf("store: put document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, body)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, canonical)
	if err != nil {
		return "", fmt.Errorf("store: put document: %w", err)
	}
	return id, nil
}

// GetDocument returns the canonical body of an archived document.
func (s *Store) GetDocument(ctx context.Context, id string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: get document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get document %s: %w", id, err)
	}
	return body, nil
}

// RecordRun appends one validation run for an archived document and
// returns the run id. The document must have been put first.
func (s *Store) RecordRun(ctx context.Context, docID string, issues []validate.Issue) (int64, error) {
	if issues == nil {
		issues = []validate.Issue{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return 0, fmt.Errorf("store: record run: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (document_id, issue_count, issues)
		VALUES (?, ?, ?)
	`, docID, len(issues), string(issuesJSON))
	if err != nil {
		return 0, fmt.Errorf("store: record run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: record run: %w", err)
	}
	return id, nil
}

// ListRuns returns every run recorded for a document, oldest first.
func (s *Store) ListRuns(ctx context.Context, docID string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, issue_count, issues, created_at
		FROM runs
		WHERE document_id = ?
		ORDER BY id ASC
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var issuesJSON string
		if err := rows.Scan(&run.ID, &run.DocumentID, &run.IssueCount, &issuesJSON, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: list runs: %w", err)
		}
		if err := json.Unmarshal([]byte(issuesJSON), &run.Issues); err != nil {
			return nil, fmt.Errorf("store: list runs: decoding issues of run %d: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return runs, nil
}
