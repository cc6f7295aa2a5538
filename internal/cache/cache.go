// internal/cache/cache.go
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// DefaultTTL applies when Set is called with a non-positive ttl.
const DefaultTTL = 5 * time.Minute

// Cache stores fetch results keyed by URL.
type Cache interface {
	// Get returns the cached result and whether it was found and fresh.
	Get(key string) (models.FetchResult, bool)

	// Set stores a result with the given TTL, replacing any existing entry.
	Set(key string, res models.FetchResult, ttl time.Duration) error

	Delete(key string) error
	Clear() error

	// Close stops background cleanup.
	Close()
}

type cacheEntry struct {
	Result    models.FetchResult
	ExpiresAt time.Time
	Key       string
	Size      int64
}

// MemoryCache is an in-memory LRU cache bounded by approximate byte size.
type MemoryCache struct {
	store   map[string]*list.Element
	lruList *list.List
	mu      sync.Mutex
	maxSize int64
	size    int64
	ctx     context.Context
	cancel  context.CancelFunc
	hits    uint64
	misses  uint64
}

// NewMemoryCache creates a cache holding up to maxSizeBytes of page content.
func NewMemoryCache(maxSizeBytes int64) *MemoryCache {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 100 * 1024 * 1024
	}

	ctx, cancel := context.WithCancel(context.Background())
	mc := &MemoryCache{
		store:   make(map[string]*list.Element),
		lruList: list.New(),
		maxSize: maxSizeBytes,
		ctx:     ctx,
		cancel:  cancel,
	}

	go mc.cleanupExpired(time.Minute)
	return mc
}

// Get moves a hit to the front of the LRU list. Expired entries are removed.
func (mc *MemoryCache) Get(key string) (models.FetchResult, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	element, exists := mc.store[key]
	if !exists {
		mc.misses++
		return models.FetchResult{}, false
	}

	entry := element.Value.(*cacheEntry)
	if time.Now().After(entry.ExpiresAt) {
		mc.misses++
		mc.removeElement(element)
		return models.FetchResult{}, false
	}

	mc.lruList.MoveToFront(element)
	mc.hits++
	log.Debug().Str("key", key).Msg("Cache hit")
	return entry.Result, true
}

// Set stores a result, evicting least recently used entries to stay in budget.
func (mc *MemoryCache) Set(key string, res models.FetchResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	// ~1KB for the struct and strings besides content
	size := int64(len(res.Content)+len(res.URL)) + 1024
	entry := &cacheEntry{
		Result:    res,
		ExpiresAt: time.Now().Add(ttl),
		Key:       key,
		Size:      size,
	}

	if element, exists := mc.store[key]; exists {
		mc.size -= element.Value.(*cacheEntry).Size
		element.Value = entry
		mc.lruList.MoveToFront(element)
		mc.size += size
		return nil
	}

	for mc.size+size > mc.maxSize && mc.lruList.Len() > 0 {
		mc.evictLRU()
	}

	mc.store[key] = mc.lruList.PushFront(entry)
	mc.size += size

	log.Debug().
		Str("key", key).
		Dur("ttl", ttl).
		Int64("size_bytes", size).
		Msg("Cached response")
	return nil
}

func (mc *MemoryCache) Delete(key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if element, exists := mc.store[key]; exists {
		mc.removeElement(element)
	}
	return nil
}

func (mc *MemoryCache) Clear() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.store = make(map[string]*list.Element)
	mc.lruList = list.New()
	mc.size = 0
	mc.hits = 0
	mc.misses = 0
	return nil
}

func (mc *MemoryCache) Close() {
	mc.cancel()
}

// must be called with lock held
func (mc *MemoryCache) removeElement(element *list.Element) {
	entry := element.Value.(*cacheEntry)
	mc.lruList.Remove(element)
	delete(mc.store, entry.Key)
	mc.size -= entry.Size
}

// must be called with lock held
func (mc *MemoryCache) evictLRU() {
	element := mc.lruList.Back()
	if element == nil {
		return
	}
	key := element.Value.(*cacheEntry).Key
	mc.removeElement(element)
	log.Debug().Str("key", key).Msg("Evicted from cache (LRU)")
}

func (mc *MemoryCache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			now := time.Now()
			var next *list.Element
			for element := mc.lruList.Front(); element != nil; element = next {
				next = element.Next()
				if now.After(element.Value.(*cacheEntry).ExpiresAt) {
					mc.removeElement(element)
				}
			}
			mc.mu.Unlock()
		case <-mc.ctx.Done():
			return
		}
	}
}

// Stats is a snapshot of cache usage.
type Stats struct {
	Entries   int
	SizeBytes int64
	MaxBytes  int64
	Hits      uint64
	Misses    uint64
	HitRate   float64
}

func (mc *MemoryCache) Stats() Stats {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	s := Stats{
		Entries:   mc.lruList.Len(),
		SizeBytes: mc.size,
		MaxBytes:  mc.maxSize,
		Hits:      mc.hits,
		Misses:    mc.misses,
	}
	if total := mc.hits + mc.misses; total > 0 {
		s.HitRate = float64(mc.hits) / float64(total) * 100
	}
	return s
}
