package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/invest-payout-engine/internal/domain/repository"
)

// KVStore persists ledger documents in the kv_store table (see db/migrations).
type KVStore struct {
	pool *pgxpool.Pool
}

func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{pool: pool}
}

func (s *KVStore) Get(ctx context.Context, key string) (repository.KVEntry, error) {
	e := repository.KVEntry{Key: key}
	row := s.pool.QueryRow(ctx, `
		SELECT value, version
		FROM kv_store
		WHERE key = $1
	`, key)
	if err := row.Scan(&e.Value, &e.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.KVEntry{}, repository.ErrNotFound
		}
		return repository.KVEntry{}, err
	}
	return e, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) (int64, error) {
	var version int64
	row := s.pool.QueryRow(ctx, `
		INSERT INTO kv_store (key, value, version)
		VALUES ($1, $2, 1)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, version = kv_store.version + 1, updated_at = now()
		RETURNING version
	`, key, value)
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (s *KVStore) SetIfVersion(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	if expected == 0 {
		res, err := s.pool.Exec(ctx, `
			INSERT INTO kv_store (key, value, version)
			VALUES ($1, $2, 1)
			ON CONFLICT (key) DO NOTHING
		`, key, value)
		if err != nil {
			return 0, err
		}
		if res.RowsAffected() == 0 {
			return 0, repository.ErrVersionConflict
		}
		return 1, nil
	}

	res, err := s.pool.Exec(ctx, `
		UPDATE kv_store
		SET value = $2, version = version + 1, updated_at = now()
		WHERE key = $1 AND version = $3
	`, key, value, expected)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected() == 0 {
		return 0, repository.ErrVersionConflict
	}
	return expected + 1, nil
}

func (s *KVStore) GetByPrefix(ctx context.Context, prefix string) ([]repository.KVEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT key, value, version
		FROM kv_store
		WHERE key LIKE $1 || '%'
		ORDER BY key
	`, escapeLike(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]repository.KVEntry, 0)
	for rows.Next() {
		var e repository.KVEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.Version); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// escapeLike neutralises LIKE wildcards in a key prefix.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

var _ repository.KVStore = (*KVStore)(nil)
