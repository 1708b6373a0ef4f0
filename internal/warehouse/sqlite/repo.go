// Package sqlite implements a SQLite-backed warehouse.Repository using
// database/sql. SQLite has no bulk-load API like Postgres COPY; Replace runs
// a DELETE plus a prepared INSERT per row inside one transaction, which keeps
// performance acceptable for moderate volumes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:songlake.db?cache=shared"
	//   "songlake.db"
	DSN string
}

// Repository is a SQLite-backed implementation of warehouse.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// createStmts holds the fixed star-schema DDL in SQLite's type vocabulary.
var createStmts = map[string]string{
	"songs": `CREATE TABLE IF NOT EXISTS songs (
		song_id   TEXT NOT NULL,
		title     TEXT NOT NULL,
		artist_id TEXT NOT NULL,
		year      INTEGER NOT NULL,
		duration  REAL
	)`,
	"artists": `CREATE TABLE IF NOT EXISTS artists (
		artist_id TEXT NOT NULL,
		name      TEXT NOT NULL,
		location  TEXT NOT NULL,
		latitude  REAL,
		longitude REAL
	)`,
	"users": `CREATE TABLE IF NOT EXISTS users (
		user_id    TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name  TEXT NOT NULL,
		gender     TEXT NOT NULL,
		level      TEXT NOT NULL
	)`,
	"time": `CREATE TABLE IF NOT EXISTS "time" (
		start_time INTEGER NOT NULL,
		hour       INTEGER NOT NULL,
		day        INTEGER NOT NULL,
		week       INTEGER NOT NULL,
		month      INTEGER NOT NULL,
		year       INTEGER NOT NULL,
		weekday    TEXT NOT NULL
	)`,
	"songplays": `CREATE TABLE IF NOT EXISTS songplays (
		start_time INTEGER NOT NULL,
		user_id    TEXT NOT NULL,
		level      TEXT NOT NULL,
		song_id    TEXT,
		artist_id  TEXT,
		session_id INTEGER NOT NULL,
		location   TEXT NOT NULL,
		user_agent TEXT NOT NULL,
		year       INTEGER NOT NULL,
		month      INTEGER NOT NULL
	)`,
}

// EnsureTable applies the CREATE TABLE IF NOT EXISTS statement for table.
func (r *Repository) EnsureTable(ctx context.Context, table string) error {
	stmt, ok := createStmts[table]
	if !ok {
		return fmt.Errorf("sqlite: no ddl for table %q", table)
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: ensure %s: %w", table, err)
	}
	return nil
}

// Replace deletes the table's rows and inserts the given rows inside one
// transaction. On any failure the transaction rolls back and the previous
// contents survive. len(row) must equal len(columns) for every row.
func (r *Repository) Replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: Replace: columns must not be empty")
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		sqlIdent(table),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+sqlIdent(table)); err != nil {
		return 0, fmt.Errorf("sqlite: clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("sqlite: Replace: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit %s: %w", table, err)
	}
	return inserted, nil
}

// sqlIdent quotes an identifier for SQLite.
func sqlIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
