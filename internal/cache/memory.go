package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an expiring in-process PageStore
type MemoryStore struct {
	pages *gocache.Cache
}

// NewMemoryStore creates a store whose pages expire after ttl; ttl <= 0 keeps them until exit
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		return &MemoryStore{pages: gocache.New(gocache.NoExpiration, 0)}
	}
	return &MemoryStore{pages: gocache.New(ttl, ttl)}
}

// Get returns the page stored for rawURL
func (s *MemoryStore) Get(rawURL string) (Page, bool) {
	v, found := s.pages.Get(Key(rawURL))
	if !found {
		return Page{}, false
	}
	page, ok := v.(Page)
	return page, ok
}

// Put stores page under rawURL with the default expiry
func (s *MemoryStore) Put(rawURL string, page Page) {
	s.pages.SetDefault(Key(rawURL), page)
}
