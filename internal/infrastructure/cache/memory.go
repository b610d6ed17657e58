package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// EmbeddingStore caches text embeddings so repeated duplicate checks do not
// re-bill the provider for identical titles.
type EmbeddingStore interface {
	Get(ctx context.Context, text string) ([]float32, bool)
	Set(ctx context.Context, text string, vector []float32)
}

// CacheKey derives the cache key for a text. Short texts key on the exact
// string; longer ones on a digest so keys stay bounded.
func CacheKey(text string) string {
	if len(text) <= 256 {
		return text
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

type memoryEntry struct {
	vector   []float32
	storedAt time.Time
}

// MemoryEmbeddingStore is a bounded in-memory embedding cache. Entries
// expire after the TTL; when the cache is full the entry with the oldest
// stored-at timestamp is evicted.
type MemoryEmbeddingStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	maxSize int
	ttl     time.Duration
}

// NewMemoryEmbeddingStore creates a bounded embedding cache.
func NewMemoryEmbeddingStore(maxSize int, ttl time.Duration) *MemoryEmbeddingStore {
	if maxSize <= 0 {
		maxSize = 512
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryEmbeddingStore{
		entries: make(map[string]*memoryEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the cached vector for a text, if present and fresh.
func (s *MemoryEmbeddingStore) Get(_ context.Context, text string) ([]float32, bool) {
	key := CacheKey(text)

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) > s.ttl {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}
	return entry.vector, true
}

// Set stores a vector, evicting the oldest entry when full.
func (s *MemoryEmbeddingStore) Set(_ context.Context, text string, vector []float32) {
	key := CacheKey(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxSize {
		s.evictOldestLocked()
	}

	s.entries[key] = &memoryEntry{
		vector:   vector,
		storedAt: time.Now(),
	}
}

// Len returns the current entry count.
func (s *MemoryEmbeddingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryEmbeddingStore) evictOldestLocked() {
	var (
		oldestKey  string
		oldestTime time.Time
		first      = true
	)
	for key, entry := range s.entries {
		if first || entry.storedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.storedAt
			first = false
		}
	}
	if oldestKey != "" || !first {
		delete(s.entries, oldestKey)
	}
}
