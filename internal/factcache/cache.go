// Package factcache keeps a single-file snapshot of fetched facts so an
// extraction can be repeated without contacting git or the tracking server.
//
// Snapshots are keyed by source ("git" or "mlflow") and location (a
// repository path or tracking URI). Each fact is stored as a CBOR payload
// tagged with its kind.
package factcache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/mlprov/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - snapshots and facts tables
// 2 - Added index on facts.kind
const currentSchemaVersion = 2

// Source names the producer a snapshot was fetched from.
type Source string

const (
	SourceGit    Source = "git"
	SourceMLflow Source = "mlflow"
)

var (
	// ErrMiss is returned by Load when no snapshot exists for a location.
	ErrMiss = errors.New("no cached snapshot")
	// ErrUnsupportedFact is returned for fact kinds the cache cannot store.
	ErrUnsupportedFact = errors.New("unsupported fact kind")
)

// Cache is a SQLite-backed fact snapshot store.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Snapshot describes one cached location.
type Snapshot struct {
	Source    Source
	Location  string
	FetchedAt time.Time
	Facts     int
}

// Open creates or opens a cache database at path.
//
// The database is configured with:
//   - WAL mode
//   - NORMAL synchronous mode
//   - 5-second busy timeout
//   - Foreign key enforcement, so replacing a snapshot drops its facts
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cache: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Save replaces the snapshot of source at location with facts.
func (c *Cache) Save(ctx context.Context, source Source, location string, facts []domain.Fact) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE source = ? AND location = ?`,
		string(source), location); err != nil {
		return fmt.Errorf("drop snapshot %s %s: %w", source, location, err)
	}

	fetchedAt := c.now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (source, location, fetched_at, fact_count) VALUES (?, ?, ?, ?)`,
		string(source), location, fetchedAt, len(facts)); err != nil {
		return fmt.Errorf("insert snapshot %s %s: %w", source, location, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO facts (source, location, seq, kind, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare fact insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range facts {
		kind, payload, err := encodeFact(f)
		if err != nil {
			return fmt.Errorf("fact %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, string(source), location, i, kind, payload); err != nil {
			return fmt.Errorf("insert fact %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot %s %s: %w", source, location, err)
	}
	return nil
}

// Load returns the cached facts of source at location in the order they
// were saved. It returns ErrMiss when nothing was cached.
func (c *Cache) Load(ctx context.Context, source Source, location string) ([]domain.Fact, error) {
	var count int
	err := c.db.QueryRowContext(ctx,
		`SELECT fact_count FROM snapshots WHERE source = ? AND location = ?`,
		string(source), location).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", source, location, ErrMiss)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s %s: %w", source, location, err)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT kind, payload FROM facts WHERE source = ? AND location = ? ORDER BY seq`,
		string(source), location)
	if err != nil {
		return nil, fmt.Errorf("query facts %s %s: %w", source, location, err)
	}
	defer rows.Close()

	facts := make([]domain.Fact, 0, count)
	for rows.Next() {
		var (
			kind    string
			payload []byte
		)
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		f, err := decodeFact(kind, payload)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facts: %w", err)
	}
	return facts, nil
}

// Snapshots lists every cached location ordered by source and location.
func (c *Cache) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT source, location, fetched_at, fact_count FROM snapshots ORDER BY source, location`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			s         Snapshot
			source    string
			fetchedAt string
		)
		if err := rows.Scan(&source, &s.Location, &fetchedAt, &s.Facts); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Source = Source(source)
		if s.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt); err != nil {
			return nil, fmt.Errorf("snapshot %s %s: fetched_at: %w", source, s.Location, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("cache schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV2 adds the kind index to caches created at version 1.
func migrateToV2(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_facts_kind ON facts (kind)`)
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (c *Cache) verifyPragma(name, expected string) error {
	var value string
	if err := c.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
