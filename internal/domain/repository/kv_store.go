package repository

import "context"

// KVEntry is a stored value together with its write counter.
type KVEntry struct {
	Key     string
	Value   []byte
	Version int64
}

// KVStore is the persistence layer the ledger is built on: point lookups,
// upserts and prefix scans. SetIfVersion with expected 0 only succeeds when
// the key does not exist yet.
type KVStore interface {
	Get(ctx context.Context, key string) (KVEntry, error)
	Set(ctx context.Context, key string, value []byte) (int64, error)
	SetIfVersion(ctx context.Context, key string, value []byte, expected int64) (int64, error)
	GetByPrefix(ctx context.Context, prefix string) ([]KVEntry, error)
}
