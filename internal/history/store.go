// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite record of completed exports.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/chatbundle/pkg/types"
)

const defaultMaxResults = 20

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store manages the history database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the history database at cfg.DBPath, creating the
// parent directory and schema as needed.
func Open(cfg types.HistoryConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	s := &Store{db: db, maxResults: maxResults}

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
		`CREATE TABLE IF NOT EXISTS exports (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			exported_at TEXT NOT NULL,
			bundle_path TEXT,
			messages INTEGER,
			assets INTEGER,
			resolved INTEGER,
			compiled INTEGER,
			compile_error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_exported_at ON exports(exported_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores rec. An empty ID is filled with a new UUID and a zero
// ExportedAt with the current time; the stored record is returned.
func (s *Store) Record(ctx context.Context, rec types.ExportRecord) (types.ExportRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ExportedAt.IsZero() {
		rec.ExportedAt = time.Now()
	}
	rec.ExportedAt = rec.ExportedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO exports
			(id, title, exported_at, bundle_path, messages, assets, resolved, compiled, compile_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, rec.ExportedAt.Format(timeLayout), rec.BundlePath,
		rec.Messages, rec.Assets, rec.Resolved, rec.Compiled, rec.CompileError,
	)
	if err != nil {
		return rec, fmt.Errorf("recording export %s: %w", rec.ID, err)
	}
	return rec, nil
}

// List returns the most recent exports, newest first. A non-positive
// limit uses the store default.
func (s *Store) List(ctx context.Context, limit int) ([]types.ExportRecord, error) {
	return s.query(ctx, "", limit)
}

// Search returns exports whose title contains term, case-insensitively,
// newest first.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]types.ExportRecord, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx, limit)
	}
	return s.query(ctx, term, limit)
}

func (s *Store) query(ctx context.Context, term string, limit int) ([]types.ExportRecord, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT id, title, exported_at, bundle_path, messages, assets,
			resolved, compiled, compile_error
		FROM exports`)
	if term != "" {
		qb.WriteString(` WHERE lower(title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(term))+"%")
	}
	qb.WriteString(` ORDER BY exported_at DESC, id LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying exports: %w", err)
	}
	defer rows.Close()

	var out []types.ExportRecord
	for rows.Next() {
		var (
			rec        types.ExportRecord
			exportedAt string
			bundlePath sql.NullString
			compileErr sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &exportedAt, &bundlePath,
			&rec.Messages, &rec.Assets, &rec.Resolved, &rec.Compiled, &compileErr); err != nil {
			return nil, fmt.Errorf("scanning export row: %w", err)
		}
		if t, parseErr := time.Parse(timeLayout, exportedAt); parseErr == nil {
			rec.ExportedAt = t
		}
		rec.BundlePath = bundlePath.String
		rec.CompileError = compileErr.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// WriteYAML writes the most recent exports to w as a YAML list.
func (s *Store) WriteYAML(ctx context.Context, w io.Writer, limit int) error {
	recs, err := s.List(ctx, limit)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []types.ExportRecord{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	return enc.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
