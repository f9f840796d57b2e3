package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rplryan/x402-routenet/pkg/routing"
	"github.com/rplryan/x402-routenet/pkg/telemetry"
)

// CacheTTL is how long a successful lookup is served without network
// access. It absorbs burst traffic against the external Discovery API.
const CacheTTL = 30 * time.Second

// DefaultMaxEntries caps the cache population. The query vocabulary is
// assumed small and repetitive; the cap guards against adversarial or
// highly varied capability strings. Eviction is least-recently-used.
const DefaultMaxEntries = 1024

// Fetcher is the Discovery API surface the cache consumes. *Client
// implements it; tests substitute a fake.
type Fetcher interface {
	Search(ctx context.Context, capability string, limit int) ([]*routing.Candidate, error)
	Catalog(ctx context.Context) ([]*routing.Candidate, error)
}

type cacheEntry struct {
	fetchedAt  time.Time
	lastUsed   time.Time
	candidates []*routing.Candidate
}

// Cache is a time-bounded memoization of capability lookups with
// degraded-fallback and stale-on-error semantics. It is safe for
// concurrent use; no lock is held across a network call, so concurrent
// refreshes of the same key may fetch redundantly, which is accepted.
type Cache struct {
	fetcher  Fetcher
	expander *Expander
	ttl      time.Duration
	maxSize  int
	now      func() time.Time
	logger   zerolog.Logger
	metrics  *telemetry.Metrics

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// CacheOptions configures optional cache behavior.
type CacheOptions struct {
	// TTL overrides CacheTTL when positive.
	TTL time.Duration

	// MaxEntries overrides DefaultMaxEntries when positive.
	MaxEntries int

	// Expander overrides the built-in synonym expander.
	Expander *Expander

	// Logger is the cache's structured logger.
	Logger zerolog.Logger

	// Metrics receives cache hit/miss/stale counters.
	Metrics *telemetry.Metrics
}

// NewCache creates a discovery cache over a Fetcher.
func NewCache(fetcher Fetcher, opts CacheOptions) *Cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = CacheTTL
	}
	maxSize := opts.MaxEntries
	if maxSize <= 0 {
		maxSize = DefaultMaxEntries
	}
	expander := opts.Expander
	if expander == nil {
		expander = NewExpander()
	}
	return &Cache{
		fetcher:  fetcher,
		expander: expander,
		ttl:      ttl,
		maxSize:  maxSize,
		now:      time.Now,
		logger:   opts.Logger.With().Str("component", "discovery-cache").Logger(),
		metrics:  opts.Metrics,
		entries:  make(map[string]*cacheEntry),
	}
}

// Expander returns the synonym expander, for configuration hot-reload.
func (c *Cache) Expander() *Expander {
	return c.expander
}

// Discover returns candidates for a capability, best effort. It never
// fails: all failure paths degrade through the fallback chain, an empty
// list being the worst case.
func (c *Cache) Discover(ctx context.Context, capability string, limit int) []*routing.Candidate {
	key := cacheKey(capability, limit)
	now := c.now()

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && now.Sub(entry.fetchedAt) < c.ttl {
		entry.lastUsed = now
		candidates := entry.candidates
		c.mu.Unlock()
		c.metrics.RecordCacheLookup("hit")
		return candidates
	}
	c.mu.Unlock()
	c.metrics.RecordCacheLookup("miss")

	// Fetch outside the lock. Concurrent misses for the same key fetch
	// redundantly; last writer wins.
	candidates := c.fetch(ctx, capability, limit)

	if len(candidates) == 0 && ok {
		// Both primary and fallback came up empty but a stale entry
		// exists. Staleness is preferred over emptiness. The cache is
		// left untouched so the next call retries the network.
		c.metrics.RecordCacheLookup("stale")
		c.logger.Warn().
			Str("capability", capability).
			Msg("Discovery failed, serving stale cache entry")
		return entry.candidates
	}

	c.store(key, now, candidates)
	return candidates
}

// fetch runs the primary search and, when it fails or returns nothing, the
// catalog keyword fallback.
func (c *Cache) fetch(ctx context.Context, capability string, limit int) []*routing.Candidate {
	candidates, err := c.fetcher.Search(ctx, capability, limit)
	if err != nil {
		// Payment-required is steady state for a paid discovery source;
		// either way the catalog fallback takes over.
		c.logger.Debug().Err(err).
			Str("capability", capability).
			Msg("Primary discovery fetch unavailable, trying catalog")
		return c.fallback(ctx, capability)
	}
	if len(candidates) == 0 {
		return c.fallback(ctx, capability)
	}
	return candidates
}

// fallback fetches the full catalog and keeps entries matching any
// expanded search term. Failures yield an empty list, never an error.
func (c *Cache) fallback(ctx context.Context, capability string) []*routing.Candidate {
	all, err := c.fetcher.Catalog(ctx)
	if err != nil {
		c.metrics.RecordDiscoveryFallback("error")
		c.logger.Warn().Err(err).Msg("Catalog fallback fetch failed")
		return nil
	}

	terms := c.expander.Expand(capability)
	var matched []*routing.Candidate
	for _, candidate := range all {
		text := candidate.SearchText()
		for _, term := range terms {
			if strings.Contains(text, term) {
				matched = append(matched, candidate)
				break
			}
		}
	}

	if len(matched) == 0 {
		c.metrics.RecordDiscoveryFallback("empty")
	} else {
		c.metrics.RecordDiscoveryFallback("matched")
	}
	c.logger.Debug().
		Str("capability", capability).
		Strs("terms", terms).
		Int("catalog", len(all)).
		Int("matched", len(matched)).
		Msg("Catalog fallback keyword match")
	return matched
}

// store writes a fresh entry, evicting the least-recently-used entry when
// the cap is exceeded.
func (c *Cache) store(key string, fetchedAt time.Time, candidates []*routing.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		fetchedAt:  fetchedAt,
		lastUsed:   fetchedAt,
		candidates: candidates,
	}

	for len(c.entries) > c.maxSize {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.lastUsed.Before(oldest) {
				oldestKey = k
				oldest = e.lastUsed
			}
		}
		delete(c.entries, oldestKey)
	}
	c.metrics.SetCacheEntries(len(c.entries))
}

// Len reports the current number of cache entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(capability string, limit int) string {
	return fmt.Sprintf("%s:%d", strings.ToLower(strings.TrimSpace(capability)), limit)
}
