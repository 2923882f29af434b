package server

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type cacheEntry struct {
	body     []byte
	storedAt time.Time
}

// Cache keeps upstream bodies keyed by request URL for a fixed TTL.
type Cache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
	logger  zerolog.Logger
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
		logger:  log.With().Str("component", "cache").Logger(),
	}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		c.logger.Debug().Str("key", key).Msg("Cache entry expired")
		return nil, false
	}
	return e.body, true
}

func (c *Cache) Set(key string, body []byte) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{body: body, storedAt: c.now()}
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops every expired entry and returns how many went.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Janitor purges a Cache on a cron schedule.
type Janitor struct {
	cron  *cron.Cron
	cache *Cache
}

func NewJanitor(cache *Cache, spec string) (*Janitor, error) {
	j := &Janitor{cron: cron.New(), cache: cache}
	if _, err := j.cron.AddFunc(spec, j.sweep); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Janitor) sweep() {
	if n := j.cache.Purge(); n > 0 {
		j.cache.logger.Debug().Int("purged", n).Int("remaining", j.cache.Len()).Msg("Cache sweep")
	}
}

func (j *Janitor) Start() { j.cron.Start() }

// Stop halts the schedule and waits for a running sweep.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}
