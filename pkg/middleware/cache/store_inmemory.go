package cache

import (
	"sync"
	"time"
)

type inMemoryItem struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryStore is the in-process fallback backend used when Redis is
// unreachable. Expired entries are dropped lazily on read and reclaimed by
// a background sweep so a fallback cache cannot grow without bound.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[string]inMemoryItem
	stop  chan struct{}
	once  sync.Once
}

// NewInMemoryStore creates an in-memory cache store sweeping expired
// entries once a minute.
func NewInMemoryStore() *InMemoryStore {
	return NewInMemoryStoreWithSweep(time.Minute)
}

// NewInMemoryStoreWithSweep creates an in-memory cache store with the given
// sweep interval. A non-positive interval disables the sweep.
func NewInMemoryStoreWithSweep(interval time.Duration) *InMemoryStore {
	s := &InMemoryStore{
		items: make(map[string]inMemoryItem),
		stop:  make(chan struct{}),
	}
	if interval > 0 {
		go s.sweep(interval)
	}
	return s
}

// Get loads a key from memory.
func (s *InMemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	if time.Now().After(item.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return append([]byte{}, item.value...), nil
}

// Set stores a key with TTL.
func (s *InMemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = inMemoryItem{
		value:     append([]byte{}, value...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a key.
func (s *InMemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len reports the number of entries currently held, expired or not.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close stops the background sweep.
func (s *InMemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *InMemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired(time.Now())
		}
	}
}

func (s *InMemoryStore) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, key)
		}
	}
}
