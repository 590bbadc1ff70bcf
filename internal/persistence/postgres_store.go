package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore exposes the roster_kv table through the Store interface.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM roster_kv WHERE key=$1`
	var value []byte
	if err := s.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *postgresStore) Set(ctx context.Context, key string, value []byte) error {
	const query = `
        INSERT INTO roster_kv (key, value, updated_at)
        VALUES ($1,$2,NOW())
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`
	_, err := s.pool.Exec(ctx, query, key, value)
	return err
}

func (s *postgresStore) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM roster_kv WHERE key=$1`
	_, err := s.pool.Exec(ctx, query, key)
	return err
}
