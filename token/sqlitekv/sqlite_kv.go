package sqlitekv

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/vpn-admin/token"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS session_kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

var _ token.BatchKV = (*SqliteKV)(nil)

// SqliteKV persists session keys in a single-table SQLite database so a
// session survives process restarts.
type SqliteKV struct {
	db *sql.DB
}

// Open creates the database file (and its directory) when missing.
// ":memory:" opens a private in-memory database.
func Open(path string) (*SqliteKV, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create token db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open token db: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping token db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session_kv table: %w", err)
	}

	log.Debug().Str("path", path).Msg("token db opened")
	return &SqliteKV{db: db}, nil
}

func (s *SqliteKV) Close() error {
	return s.db.Close()
}

func (s *SqliteKV) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM session_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

const upsert = `INSERT INTO session_kv (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (s *SqliteKV) Set(key, value string) error {
	if _, err := s.db.Exec(upsert, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// SetMany upserts all entries in one transaction.
func (s *SqliteKV) SetMany(entries []token.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin session write: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.Exec(upsert, e.Key, e.Value); err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Err(rollbackErr).Msg("[sqlitekv.SetMany] rollback failed")
			}
			return fmt.Errorf("upsert %s: %w", e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session write: %w", err)
	}
	return nil
}

func (s *SqliteKV) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if _, err := s.db.Exec(`DELETE FROM session_kv WHERE key IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("delete session keys: %w", err)
	}
	return nil
}
