package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite with WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the history database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// The history is written from a single result-processing goroutine.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	var hasVersionTbl int
	if err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&hasVersionTbl); err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if hasVersionTbl == 0 {
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("apply base schema: %w", err)
		}
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
		return nil
	}

	var current int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration v%d begin: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("UPDATE schema_version SET version = ?", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d version update: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration v%d commit: %w", m.version, err)
		}
		current = m.version
	}

	if current > schemaVersion {
		return fmt.Errorf("history db schema v%d is newer than this binary supports (v%d)", current, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

const timeFormat = "2006-01-02T15:04:05Z"

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

func (s *SQLiteStore) RecordObservation(ctx context.Context, o *Observation) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO observations (target, value, changed) VALUES (?, ?, ?)`,
		o.Target, o.Value, o.Changed)
	if err != nil {
		return fmt.Errorf("record observation: %w", err)
	}
	o.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) RecordChange(ctx context.Context, c *Change) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO changes (target, old_value, new_value, diff) VALUES (?, ?, ?, ?)`,
		c.Target, c.OldValue, c.NewValue, c.Diff)
	if err != nil {
		return fmt.Errorf("record change: %w", err)
	}
	c.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) LatestObservation(ctx context.Context, target string) (*Observation, error) {
	var o Observation
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, target, value, changed, created_at FROM observations
		 WHERE target = ? ORDER BY id DESC LIMIT 1`, target).
		Scan(&o.ID, &o.Target, &o.Value, &o.Changed, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest observation: %w", err)
	}
	o.CreatedAt = parseTime(created)
	return &o, nil
}

func (s *SQLiteStore) ListChanges(ctx context.Context, target string, limit int) ([]*Change, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target, old_value, new_value, diff, created_at FROM changes
		 WHERE target = ? ORDER BY id DESC LIMIT ?`, target, limit)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var out []*Change
	for rows.Next() {
		var c Change
		var created string
		if err := rows.Scan(&c.ID, &c.Target, &c.OldValue, &c.NewValue, &c.Diff, &created); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.CreatedAt = parseTime(created)
		out = append(out, &c)
	}
	return out, rows.Err()
}
