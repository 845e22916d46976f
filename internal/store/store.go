package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Store is the persistence collaborator: each entity collection is loaded
// and saved wholesale, so callers can treat it as a dictionary of named
// collections. In-memory state stays the source of truth while the process
// runs; the store only has to survive restarts.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS work_items (
		id          TEXT PRIMARY KEY,
		parent_id   TEXT NOT NULL DEFAULT '',
		category_id TEXT NOT NULL DEFAULT '',
		title       TEXT NOT NULL,
		complete    INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id           TEXT PRIMARY KEY,
		item_id      TEXT NOT NULL DEFAULT '',
		sub_item_id  TEXT NOT NULL DEFAULT '',
		category_id  TEXT NOT NULL DEFAULT '',
		project_id   TEXT NOT NULL DEFAULT '',
		milestone_id TEXT NOT NULL DEFAULT '',
		title        TEXT NOT NULL DEFAULT '',
		start_time   TEXT NOT NULL,
		end_time     TEXT,
		notes        TEXT NOT NULL DEFAULT '',
		manual       INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_time);

	CREATE TABLE IF NOT EXISTS planned_activities (
		id           TEXT PRIMARY KEY,
		day          TEXT NOT NULL,
		start_time   TEXT NOT NULL,
		duration_min INTEGER NOT NULL,
		kind         TEXT NOT NULL DEFAULT 'task',
		item_id      TEXT NOT NULL DEFAULT '',
		category_id  TEXT NOT NULL DEFAULT '',
		title        TEXT NOT NULL DEFAULT '',
		logged       INTEGER NOT NULL DEFAULT 0,
		rule_id      TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_planned_day ON planned_activities(day);

	CREATE TABLE IF NOT EXISTS recurring_activities (
		id           TEXT PRIMARY KEY,
		anchor       TEXT NOT NULL,
		kind         TEXT NOT NULL DEFAULT 'task',
		item_id      TEXT NOT NULL DEFAULT '',
		category_id  TEXT NOT NULL DEFAULT '',
		title        TEXT NOT NULL DEFAULT '',
		time_of_day  TEXT NOT NULL,
		duration_min INTEGER NOT NULL,
		frequency    TEXT NOT NULL,
		week_days    TEXT NOT NULL DEFAULT '',
		month_day    INTEGER NOT NULL DEFAULT 0,
		nth_week     INTEGER NOT NULL DEFAULT 0,
		nth_weekday  INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS active_timer (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		item_id     TEXT NOT NULL DEFAULT '',
		sub_item_id TEXT NOT NULL DEFAULT '',
		start_time  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('day_start_hour',   '6'),
		('day_end_hour',     '22'),
		('daily_goal_hours', '7.5');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// replaceAll clears table and runs fn inside one transaction, giving every
// Save* method wholesale set-collection semantics.
func (s *Store) replaceAll(table string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// DefaultDBPath returns ~/.config/stint/stint.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "stint", "stint.db"), nil
}
