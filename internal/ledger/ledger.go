// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a SQLite history of PDF acquisitions. Each batch (an
// API batch request or one CLI invocation) gets an id; every identifier in
// the batch gets one row with its outcome.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/patent-scout/pkg/types"
)

const defaultLimit = 50

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded acquisition.
type Entry struct {
	BatchID   string    `json:"batchId" yaml:"batch_id"`
	Origin    string    `json:"origin" yaml:"origin"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	types.DownloadResult
}

// Store is the ledger database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger at path, creating its directory and
// schema when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
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
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			origin TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS downloads (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL REFERENCES batches(id),
			position INTEGER NOT NULL,
			patent_id TEXT NOT NULL,
			status TEXT NOT NULL,
			location TEXT,
			error TEXT,
			size_bytes INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_patent_id ON downloads(patent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_batch_id ON downloads(batch_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores results under batchID in one transaction. origin names the
// caller, for example "api" or "cli".
func (s *Store) Record(ctx context.Context, batchID, origin string, results []types.DownloadResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	created := s.now().UTC().Format(timeLayout)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batches (id, origin, created_at) VALUES (?, ?, ?)`,
		batchID, origin, created,
	); err != nil {
		return fmt.Errorf("inserting batch %s: %w", batchID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO downloads
		(batch_id, position, patent_id, status, location, error, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.ExecContext(ctx, batchID, i, r.PatentID, string(r.Status), r.FilePath, r.Error, r.SizeBytes); err != nil {
			return fmt.Errorf("inserting %s: %w", r.PatentID, err)
		}
	}
	return tx.Commit()
}

// Query filters ledger reads.
type Query struct {
	// PatentID restricts results to one identifier.
	PatentID string
	// FailedOnly restricts results to failed acquisitions.
	FailedOnly bool
	// Limit caps the number of entries (default 50).
	Limit int
}

// Recent returns matching entries, newest batch first and in request order
// within a batch.
func (s *Store) Recent(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `SELECT b.id, b.origin, b.created_at, d.patent_id, d.status,
			COALESCE(d.location, ''), COALESCE(d.error, ''), COALESCE(d.size_bytes, 0)
		FROM downloads d JOIN batches b ON b.id = d.batch_id
		WHERE 1 = 1`
	var args []any
	if q.PatentID != "" {
		query += ` AND d.patent_id = ?`
		args = append(args, q.PatentID)
	}
	if q.FailedOnly {
		query += ` AND d.status = ?`
		args = append(args, string(types.DownloadFailed))
	}
	query += ` ORDER BY b.created_at DESC, d.position ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
			status  string
		)
		if err := rows.Scan(&e.BatchID, &e.Origin, &created, &e.PatentID, &status,
			&e.FilePath, &e.Error, &e.SizeBytes); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		e.Status = types.DownloadStatus(status)
		if t, err := time.Parse(timeLayout, created); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
