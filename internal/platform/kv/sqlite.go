package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
  namespace  TEXT    NOT NULL,
  key        TEXT    NOT NULL,
  version    INTEGER NOT NULL,
  seq        INTEGER NOT NULL,
  value      BLOB    NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (namespace, key)
);
CREATE INDEX IF NOT EXISTS kv_entries_seq ON kv_entries (namespace, seq);
`

// sqliteMigrations[i] moves a database from user_version i to i+1.
var sqliteMigrations = []string{
	sqliteSchema,
}

// migrateSQLite applies the migrations the file has not seen yet and records
// the new user_version alongside each step.
func migrateSQLite(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version > len(sqliteMigrations) {
		return fmt.Errorf("sqlite schema version %d is newer than supported version %d", version, len(sqliteMigrations))
	}
	for v := version; v < len(sqliteMigrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if _, err := tx.Exec(sqliteMigrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("set user_version %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	return nil
}

// SQLite stores entries in a single WAL-mode database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and migrates its schema.
// Safe to call repeatedly on the same file.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// SQLite has a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, namespace, key string) (Entry, error) {
	entry, err := scanSQLiteEntry(s.db.QueryRowContext(ctx, `
		SELECT key, version, seq, value, updated_at
		FROM kv_entries
		WHERE namespace = ? AND key = ?
	`, namespace, key))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, unavailable("get", err)
	}
	return entry, nil
}

func (s *SQLite) List(ctx context.Context, namespace string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, version, seq, value, updated_at
		FROM kv_entries
		WHERE namespace = ?
		ORDER BY seq
	`, namespace)
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, unavailable("list", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	return entries, nil
}

func (s *SQLite) Put(ctx context.Context, namespace, key string, value []byte, expected int64) (Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, unavailable("put", err)
	}
	defer tx.Rollback()

	current, err := scanSQLiteEntry(tx.QueryRowContext(ctx, `
		SELECT key, version, seq, value, updated_at
		FROM kv_entries
		WHERE namespace = ? AND key = ?
	`, namespace, key))
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return Entry{}, unavailable("put", err)
	}
	if err := checkVersion(current, exists, expected); err != nil {
		return Entry{}, err
	}

	now := time.Now().UTC()
	next := Entry{Key: key, Version: 1, Value: value, UpdatedAt: now}
	if exists {
		next.Version = current.Version + 1
		next.Seq = current.Seq
		_, err = tx.ExecContext(ctx, `
			UPDATE kv_entries SET version = ?, value = ?, updated_at = ?
			WHERE namespace = ? AND key = ?
		`, next.Version, value, now.UnixNano(), namespace, key)
	} else {
		if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) + 1 FROM kv_entries").Scan(&next.Seq); err != nil {
			return Entry{}, unavailable("put", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO kv_entries (namespace, key, version, seq, value, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, namespace, key, next.Version, next.Seq, value, now.UnixNano())
	}
	if err != nil {
		return Entry{}, unavailable("put", err)
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, unavailable("put", err)
	}
	return next, nil
}

func (s *SQLite) Delete(ctx context.Context, namespace, key string, expected int64) error {
	if expected == Any {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE namespace = ? AND key = ?", namespace, key); err != nil {
			return unavailable("delete", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE namespace = ? AND key = ? AND version = ?", namespace, key, expected)
	if err != nil {
		return unavailable("delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return unavailable("delete", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := s.Get(ctx, namespace, key); err != nil {
		return err
	}
	return ErrVersionConflict
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEntry(row rowScanner) (Entry, error) {
	var entry Entry
	var updated int64
	if err := row.Scan(&entry.Key, &entry.Version, &entry.Seq, &entry.Value, &updated); err != nil {
		return Entry{}, err
	}
	entry.UpdatedAt = time.Unix(0, updated).UTC()
	return entry, nil
}
