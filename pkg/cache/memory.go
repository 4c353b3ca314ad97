package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache implements the Cache interface using in-memory storage
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates a new in-memory cache instance
func NewMemoryCache() *MemoryCache {
	mc := &MemoryCache{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}
	go mc.cleanupLoop(time.Minute)
	return mc
}

func (mc *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	mc.mu.RLock()
	entry, ok := mc.entries[key]
	mc.mu.RUnlock()
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expiresAt) {
		mc.mu.Lock()
		delete(mc.entries, key)
		mc.mu.Unlock()
		return "", false
	}
	return entry.value, true
}

func (mc *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	mc.mu.Lock()
	mc.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Delete(_ context.Context, key string) error {
	mc.mu.Lock()
	delete(mc.entries, key)
	mc.mu.Unlock()
	return nil
}

// Close stops the background cleanup goroutine
func (mc *MemoryCache) Close() error {
	mc.once.Do(func() { close(mc.stop) })
	return nil
}

func (mc *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			mc.mu.Lock()
			for key, entry := range mc.entries {
				if now.After(entry.expiresAt) {
					delete(mc.entries, key)
				}
			}
			mc.mu.Unlock()
		case <-mc.stop:
			return
		}
	}
}
