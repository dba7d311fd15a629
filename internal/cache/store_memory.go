package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process BucketStore for tests and single-node
// deployments. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*Entry
}

var _ BucketStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]map[string]*Entry)}
}

func (s *MemoryStore) Put(_ context.Context, bucket, key string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.buckets[bucket]
	if !ok {
		entries = make(map[string]*Entry)
		s.buckets[bucket] = entries
	}
	entries[key] = entry
	return nil
}

func (s *MemoryStore) Match(_ context.Context, bucket, key string) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.buckets[bucket][key]
	if !ok {
		return nil, false, nil
	}
	return entry, true, nil
}

func (s *MemoryStore) Buckets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	return names, nil
}

func (s *MemoryStore) DeleteBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets, bucket)
	return nil
}
