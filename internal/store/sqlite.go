package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jobalert-engine/internal/domain"

	_ "modernc.org/sqlite"
)

// migrations[i] upgrades the schema from user_version i to i+1.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS seen_jobs (
  key        TEXT PRIMARY KEY,
  first_seen TEXT NOT NULL DEFAULT ''
)`,
		`CREATE INDEX IF NOT EXISTS idx_seen_jobs_first_seen ON seen_jobs(first_seen)`,
	},
}

// SQLiteBackend keeps the seen set in a seen_jobs table. Read errors are
// never treated as corruption; they fail the run.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

func OpenSQLite(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc sqlite takes pragmas in the DSN.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v); err != nil {
		return err
	}
	if v > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this binary (%d)", v, len(migrations))
	}
	for ; v < len(migrations); v++ {
		for _, stmt := range migrations[v] {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("step %d: %w", v+1, err)
			}
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, v)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteBackend) String() string { return "sqlite:" + s.path }

func (s *SQLiteBackend) Close() error { return s.db.Close() }

func (s *SQLiteBackend) Load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, first_seen FROM seen_jobs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := Snapshot{}
	for rows.Next() {
		var key, seen string
		if err := rows.Scan(&key, &seen); err != nil {
			return nil, err
		}
		var t time.Time
		if seen != "" {
			if t, err = time.Parse(time.RFC3339Nano, seen); err != nil {
				t = time.Time{}
			}
		}
		snap[domain.JobKey(key)] = t
	}
	return snap, rows.Err()
}

// Save replaces the table contents in a single transaction.
func (s *SQLiteBackend) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM seen_jobs`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO seen_jobs(key, first_seen) VALUES(?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for k, t := range snap {
		seen := ""
		if !t.IsZero() {
			seen = t.UTC().Format(time.RFC3339Nano)
		}
		if _, err := stmt.ExecContext(ctx, string(k), seen); err != nil {
			return fmt.Errorf("insert %s: %w", k, err)
		}
	}
	return tx.Commit()
}
