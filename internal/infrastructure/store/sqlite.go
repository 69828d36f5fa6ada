package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"

	_ "modernc.org/sqlite"
)

var _ output.StatePort = (*SQLiteStore)(nil)

// SQLiteStore keeps the navigation record as a JSON value in a key/value table,
// so a task survives process restarts.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

// NewSQLiteStore opens (or creates) the database at path. ":memory:" is accepted for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set database pragmas: %w", err)
	}

	s := &SQLiteStore{db: db, key: entity.StateKey}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("state store migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kv_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context) (entity.PersistedState, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_state WHERE key = ?`, s.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.PersistedState{}, false, nil
	}
	if err != nil {
		return entity.PersistedState{}, false, fmt.Errorf("load state: %w", err)
	}

	var state entity.PersistedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return entity.PersistedState{}, false, fmt.Errorf("decode state: %w", err)
	}
	return state, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, state entity.PersistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO kv_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		s.key, string(data))
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_state WHERE key = ?`, s.key); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
