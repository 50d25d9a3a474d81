// internal/stock/search/cache.go
package search

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/metrics"
	"stock-backoffice/internal/models"
	propertylisting "stock-backoffice/internal/services/property-listing"
)

const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 50
)

// Fetcher runs a listing query against the backend.
type Fetcher interface {
	Fetch(ctx context.Context, q propertylisting.Query) (*models.ListingResponse, error)
}

type Options struct {
	TTL        time.Duration
	MaxEntries int
	Logger     logger.Logger
	Now        func() time.Time
}

type entry struct {
	result  models.ListingResponse
	stored  time.Time
	expires time.Time
}

// EntryStats describes one cached result.
type EntryStats struct {
	Key     string    `json:"key"`
	Count   int       `json:"count"`
	Expires time.Time `json:"expires"`
}

type Stats struct {
	Size    int          `json:"size"`
	Entries []EntryStats `json:"entries"`
}

// Cache memoizes non-empty text search results by normalized query,
// filters, paging and sort.
type Cache struct {
	fetcher    Fetcher
	ttl        time.Duration
	maxEntries int
	logger     logger.Logger
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewCache(fetcher Fetcher, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		fetcher:    fetcher,
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		logger:     logger.ForComponent(opts.Logger, "search.cache"),
		now:        opts.Now,
		entries:    make(map[string]*entry),
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// Normalize upper-cases text and collapses whitespace runs.
func Normalize(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(strings.ToUpper(text), " "))
}

// Key identifies q after its text has been normalized.
func Key(q propertylisting.Query) (string, error) {
	raw, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Search returns a cached result for q when one is live, and otherwise
// fetches it. Only results with a positive count are stored.
func (c *Cache) Search(ctx context.Context, q propertylisting.Query) (*models.ListingResponse, error) {
	var text string
	if q.Filter.Query != nil {
		text = Normalize(*q.Filter.Query)
	}
	q.Filter.Query = nil
	if text != "" {
		q.Filter.Query = &text
	}

	key, err := Key(q)
	if err != nil {
		return nil, err
	}

	if hit, ok := c.lookup(key); ok {
		metrics.SearchCache.WithLabelValues("hit").Inc()
		c.logger.Debug("search served from cache", map[string]interface{}{"count": hit.Count})
		return hit, nil
	}
	metrics.SearchCache.WithLabelValues("miss").Inc()

	result, err := c.fetcher.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if result != nil && result.Count > 0 {
		c.store(key, *result)
	}
	return result, nil
}

func (c *Cache) lookup(key string) (*models.ListingResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.expires.After(c.now()) {
		return nil, false
	}
	out := e.result
	out.Items = append([]models.Item(nil), e.result.Items...)
	return &out, true
}

func (c *Cache) store(key string, result models.ListingResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &entry{result: result, stored: now, expires: now.Add(c.ttl)}
	if len(c.entries) <= c.maxEntries {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].stored.Before(c.entries[keys[j]].stored)
	})
	for _, k := range keys[:len(keys)-c.maxEntries] {
		delete(c.entries, k)
	}
}

// Invalidate drops every entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	if n > 0 {
		c.logger.Debug("search cache invalidated", map[string]interface{}{"entries": n})
	}
}

// Sweep removes expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if !e.expires.After(now) {
			delete(c.entries, k)
			n++
		}
	}
	if n > 0 {
		c.logger.Debug("expired search results removed", map[string]interface{}{"count": n})
	}
	return n
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := Stats{Size: len(c.entries), Entries: make([]EntryStats, 0, len(c.entries))}
	for k, e := range c.entries {
		out.Entries = append(out.Entries, EntryStats{Key: k, Count: e.result.Count, Expires: e.expires})
	}
	sort.Slice(out.Entries, func(i, j int) bool { return out.Entries[i].Expires.Before(out.Entries[j].Expires) })
	return out
}
