package jwks

import (
	"context"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Entry is a cached key set and the time it was fetched.
// Entries are never modified after they are saved.
type Entry struct {
	Set       jwk.Set
	FetchedAt time.Time
}

// Store persists cache entries keyed by JWKS URL.
type Store interface {
	// Load returns the entry for url, or nil when there is none.
	Load(ctx context.Context, url string) (*Entry, error)

	// Save replaces the entry for url.
	Save(ctx context.Context, url string, entry *Entry) error

	// Delete drops the entry for url. Deleting a missing entry is not an error.
	Delete(ctx context.Context, url string) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func (s *MemoryStore) Load(_ context.Context, url string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[url], nil
}

func (s *MemoryStore) Save(_ context.Context, url string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[url] = entry
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, url)
	return nil
}
