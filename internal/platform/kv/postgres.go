package kv

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
  namespace  TEXT        NOT NULL,
  key        TEXT        NOT NULL,
  version    BIGINT      NOT NULL,
  seq        BIGSERIAL   NOT NULL,
  value      BYTEA       NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (namespace, key)
);
CREATE INDEX IF NOT EXISTS kv_entries_seq ON kv_entries (namespace, seq);
`

type Postgres struct {
	DB *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{DB: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, namespace, key string) (Entry, error) {
	var entry Entry
	err := p.DB.QueryRow(ctx, `
    SELECT key, version, seq, value, updated_at
    FROM kv_entries
    WHERE namespace = $1 AND key = $2
  `, namespace, key).Scan(&entry.Key, &entry.Version, &entry.Seq, &entry.Value, &entry.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, unavailable("get", err)
	}
	return entry, nil
}

func (p *Postgres) List(ctx context.Context, namespace string) ([]Entry, error) {
	rows, err := p.DB.Query(ctx, `
    SELECT key, version, seq, value, updated_at
    FROM kv_entries
    WHERE namespace = $1
    ORDER BY seq
  `, namespace)
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Key, &entry.Version, &entry.Seq, &entry.Value, &entry.UpdatedAt); err != nil {
			return nil, unavailable("list", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	return entries, nil
}

func (p *Postgres) Put(ctx context.Context, namespace, key string, value []byte, expected int64) (Entry, error) {
	entry := Entry{Key: key, Value: value}
	var err error
	switch {
	case expected == Any:
		err = p.DB.QueryRow(ctx, `
      INSERT INTO kv_entries (namespace, key, version, value)
      VALUES ($1, $2, 1, $3)
      ON CONFLICT (namespace, key)
      DO UPDATE SET version = kv_entries.version + 1, value = EXCLUDED.value, updated_at = now()
      RETURNING version, seq, updated_at
    `, namespace, key, value).Scan(&entry.Version, &entry.Seq, &entry.UpdatedAt)
	case expected == 0:
		err = p.DB.QueryRow(ctx, `
      INSERT INTO kv_entries (namespace, key, version, value)
      VALUES ($1, $2, 1, $3)
      ON CONFLICT (namespace, key) DO NOTHING
      RETURNING version, seq, updated_at
    `, namespace, key, value).Scan(&entry.Version, &entry.Seq, &entry.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrAlreadyExists
		}
	default:
		err = p.DB.QueryRow(ctx, `
      UPDATE kv_entries
      SET version = version + 1, value = $4, updated_at = now()
      WHERE namespace = $1 AND key = $2 AND version = $3
      RETURNING version, seq, updated_at
    `, namespace, key, expected, value).Scan(&entry.Version, &entry.Seq, &entry.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := p.Get(ctx, namespace, key); getErr != nil {
				return Entry{}, getErr
			}
			return Entry{}, ErrVersionConflict
		}
	}
	if err != nil {
		return Entry{}, unavailable("put", err)
	}
	return entry, nil
}

func (p *Postgres) Delete(ctx context.Context, namespace, key string, expected int64) error {
	if expected == Any {
		if _, err := p.DB.Exec(ctx, "DELETE FROM kv_entries WHERE namespace = $1 AND key = $2", namespace, key); err != nil {
			return unavailable("delete", err)
		}
		return nil
	}

	tag, err := p.DB.Exec(ctx, "DELETE FROM kv_entries WHERE namespace = $1 AND key = $2 AND version = $3", namespace, key, expected)
	if err != nil {
		return unavailable("delete", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := p.Get(ctx, namespace, key); err != nil {
		return err
	}
	return ErrVersionConflict
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.DB.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.DB.Close()
	return nil
}
