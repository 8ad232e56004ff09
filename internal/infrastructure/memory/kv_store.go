package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/oksasatya/invest-payout-engine/internal/domain/repository"
)

type kvItem struct {
	value   []byte
	version int64
}

// KVStore is a process-local repository.KVStore used for development and tests.
type KVStore struct {
	mu    sync.RWMutex
	items map[string]kvItem
}

func NewKVStore() *KVStore {
	return &KVStore{items: make(map[string]kvItem)}
}

func (s *KVStore) Get(ctx context.Context, key string) (repository.KVEntry, error) {
	if err := ctx.Err(); err != nil {
		return repository.KVEntry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[key]
	if !ok {
		return repository.KVEntry{}, repository.ErrNotFound
	}
	return repository.KVEntry{Key: key, Value: clone(it.value), Version: it.version}, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.items[key].version + 1
	s.items[key] = kvItem{value: clone(value), version: v}
	return v, nil
}

func (s *KVStore) SetIfVersion(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[key]
	if (!ok && expected != 0) || (ok && cur.version != expected) {
		return 0, repository.ErrVersionConflict
	}
	v := expected + 1
	s.items[key] = kvItem{value: clone(value), version: v}
	return v, nil
}

func (s *KVStore) GetByPrefix(ctx context.Context, prefix string) ([]repository.KVEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]repository.KVEntry, 0)
	for k, it := range s.items {
		if strings.HasPrefix(k, prefix) {
			out = append(out, repository.KVEntry{Key: k, Value: clone(it.value), Version: it.version})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

var _ repository.KVStore = (*KVStore)(nil)
