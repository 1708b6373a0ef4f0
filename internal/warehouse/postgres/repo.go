// Package postgres implements a Postgres warehouse.Repository using pgx v5.
// Replace runs TRUNCATE plus COPY inside a single transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of warehouse.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for
// cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, closeFn, nil
}

// createStmts holds the fixed star-schema DDL. Text nulls are stored as
// empty strings, matching the parquet output, so only the genuinely
// optional numeric and reference columns are nullable.
var createStmts = map[string]string{
	"songs": `CREATE TABLE IF NOT EXISTS songs (
		song_id   text NOT NULL,
		title     text NOT NULL,
		artist_id text NOT NULL,
		year      integer NOT NULL,
		duration  double precision
	)`,
	"artists": `CREATE TABLE IF NOT EXISTS artists (
		artist_id text NOT NULL,
		name      text NOT NULL,
		location  text NOT NULL,
		latitude  double precision,
		longitude double precision
	)`,
	"users": `CREATE TABLE IF NOT EXISTS users (
		user_id    text NOT NULL,
		first_name text NOT NULL,
		last_name  text NOT NULL,
		gender     text NOT NULL,
		level      text NOT NULL
	)`,
	"time": `CREATE TABLE IF NOT EXISTS "time" (
		start_time bigint NOT NULL,
		hour       integer NOT NULL,
		day        integer NOT NULL,
		week       integer NOT NULL,
		month      integer NOT NULL,
		year       integer NOT NULL,
		weekday    text NOT NULL
	)`,
	"songplays": `CREATE TABLE IF NOT EXISTS songplays (
		start_time bigint NOT NULL,
		user_id    text NOT NULL,
		level      text NOT NULL,
		song_id    text,
		artist_id  text,
		session_id bigint NOT NULL,
		location   text NOT NULL,
		user_agent text NOT NULL,
		year       integer NOT NULL,
		month      integer NOT NULL
	)`,
}

// EnsureTable applies the CREATE TABLE IF NOT EXISTS statement for table.
func (r *Repository) EnsureTable(ctx context.Context, table string) error {
	stmt, ok := createStmts[table]
	if !ok {
		return fmt.Errorf("no ddl for table %q", table)
	}
	if _, err := r.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure %s: %w", table, err)
	}
	return nil
}

// Replace truncates table and bulk-loads rows via COPY, all inside one
// transaction. On any failure the transaction rolls back and the previous
// contents survive.
func (r *Repository) Replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "TRUNCATE "+pgFQN(table)); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", table, err)
	}

	n, err := tx.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("copy into %s: %s (%s)", table, pgErr.Detail, pgErr.SQLState())
		}
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit %s: %w", table, err)
	}
	return n, nil
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.songs" to
// "public"."songs". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
