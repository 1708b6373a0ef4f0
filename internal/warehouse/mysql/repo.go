// Package mysql implements a MySQL-backed warehouse.Repository using
// database/sql and the go-sql-driver driver. MySQL has no COPY protocol, so
// Replace runs a DELETE plus a prepared INSERT per row inside one
// transaction.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN is a go-sql-driver connection string, e.g.
	//   "user:password@tcp(127.0.0.1:3306)/sparkifydb"
	DSN string
}

// Repository is a MySQL-backed implementation of warehouse.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a MySQL connection pool using the provided DSN and
// returns a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mysql: DSN must not be empty")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: open: %w", err)
	}

	// Fail fast on unreachable servers and bad credentials.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}

	closeFn := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// createStmts holds the fixed star-schema DDL in MySQL's type vocabulary.
// Free-text columns use TEXT; join and partition columns are VARCHAR so they
// stay indexable.
var createStmts = map[string]string{
	"songs": "CREATE TABLE IF NOT EXISTS `songs` (" + `
		song_id   VARCHAR(256) NOT NULL,
		title     TEXT NOT NULL,
		artist_id VARCHAR(256) NOT NULL,
		year      INT NOT NULL,
		duration  DOUBLE NULL
	)`,
	"artists": "CREATE TABLE IF NOT EXISTS `artists` (" + `
		artist_id VARCHAR(256) NOT NULL,
		name      TEXT NOT NULL,
		location  TEXT NOT NULL,
		latitude  DOUBLE NULL,
		longitude DOUBLE NULL
	)`,
	"users": "CREATE TABLE IF NOT EXISTS `users` (" + `
		user_id    VARCHAR(256) NOT NULL,
		first_name TEXT NOT NULL,
		last_name  TEXT NOT NULL,
		gender     VARCHAR(16) NOT NULL,
		level      VARCHAR(16) NOT NULL
	)`,
	"time": "CREATE TABLE IF NOT EXISTS `time` (" + `
		start_time BIGINT NOT NULL,
		hour       INT NOT NULL,
		day        INT NOT NULL,
		week       INT NOT NULL,
		month      INT NOT NULL,
		year       INT NOT NULL,
		weekday    VARCHAR(16) NOT NULL
	)`,
	"songplays": "CREATE TABLE IF NOT EXISTS `songplays` (" + `
		start_time BIGINT NOT NULL,
		user_id    VARCHAR(256) NOT NULL,
		level      VARCHAR(16) NOT NULL,
		song_id    VARCHAR(256) NULL,
		artist_id  VARCHAR(256) NULL,
		session_id BIGINT NOT NULL,
		location   TEXT NOT NULL,
		user_agent TEXT NOT NULL,
		year       INT NOT NULL,
		month      INT NOT NULL
	)`,
}

// EnsureTable applies the CREATE TABLE IF NOT EXISTS statement for table.
func (r *Repository) EnsureTable(ctx context.Context, table string) error {
	stmt, ok := createStmts[table]
	if !ok {
		return fmt.Errorf("mysql: no ddl for table %q", table)
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("mysql: ensure %s: %w", table, err)
	}
	return nil
}

// Replace deletes the table's rows and inserts the given rows inside one
// transaction. On any failure the transaction rolls back and the previous
// contents survive. len(row) must equal len(columns) for every row.
func (r *Repository) Replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: Replace: columns must not be empty")
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		myIdent(table),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+myIdent(table)); err != nil {
		return 0, fmt.Errorf("mysql: clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("mysql: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("mysql: Replace: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("mysql: insert into %s: %w", table, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit %s: %w", table, err)
	}
	return inserted, nil
}

// myIdent quotes an identifier with backticks for MySQL.
func myIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }
