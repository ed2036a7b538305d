package gamestate

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ProgramCache stores compiled expression programs keyed by engine and source.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// DefaultProgramCacheSize bounds caches built by NewLRUProgramCache when
// size is not positive.
const DefaultProgramCacheSize = 256

// NewLRUProgramCache returns a bounded, concurrency-safe ProgramCache.
func NewLRUProgramCache(size int) (ProgramCache, error) {
	if size <= 0 {
		size = DefaultProgramCacheSize
	}
	cache, err := lru.New[string, any](size)
	if err != nil {
		return nil, err
	}
	return &lruProgramCache{cache: cache}, nil
}

type lruProgramCache struct {
	cache *lru.Cache[string, any]
}

func (c *lruProgramCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *lruProgramCache) Set(key string, value any) {
	c.cache.Add(key, value)
}

// NewMapProgramCache returns an unbounded ProgramCache.
func NewMapProgramCache() ProgramCache {
	return &mapProgramCache{items: make(map[string]any)}
}

type mapProgramCache struct {
	mu    sync.RWMutex
	items map[string]any
}

func (c *mapProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.items[key]
	return value, ok
}

func (c *mapProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

// scopedProgramCache namespaces keys so programs bound to one pair of
// ledgers are never served to conditions over another pair.
type scopedProgramCache struct {
	next   ProgramCache
	prefix string
}

func scopeProgramCache(cache ProgramCache, scope string) ProgramCache {
	if cache == nil {
		return nil
	}
	return &scopedProgramCache{next: cache, prefix: scope + "|"}
}

func (c *scopedProgramCache) Get(key string) (any, bool) {
	return c.next.Get(c.prefix + key)
}

func (c *scopedProgramCache) Set(key string, value any) {
	c.next.Set(c.prefix+key, value)
}

func cacheKey(engine, expression string) string {
	return engine + ":" + expression
}
