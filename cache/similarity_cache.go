package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/simplelru"
	"go.uber.org/zap"
)

const (
	DefaultCapacity   = 100
	DefaultTTL        = time.Hour
	DefaultThreshold  = 0.6
	DefaultMinWordLen = 4
)

// Entry is a previously produced assistant answer.
type Entry struct {
	Key          string    `json:"key"`
	Reply        string    `json:"reply"`
	ThreadID     string    `json:"threadId"`
	ScrollToForm bool      `json:"scrollToForm"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Options configures a SimilarityCache. Zero values fall back to the defaults.
type Options struct {
	Capacity   int
	TTL        time.Duration
	Threshold  float64
	MinWordLen int
	Now        func() time.Time
}

// Stats reports cache activity since construction.
type Stats struct {
	Entries    int   `json:"entries"`
	Hits       int64 `json:"hits"`
	FuzzyHits  int64 `json:"fuzzyHits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
	Capacity   int   `json:"capacity"`
	TTLSeconds int64 `json:"ttlSeconds"`
}

// SimilarityCache is a bounded, TTL'd answer cache keyed by normalized
// question text. Entries are kept in insertion order: reads never refresh
// an entry and the oldest insert is evicted once capacity is exceeded.
type SimilarityCache struct {
	mu      sync.RWMutex
	entries *simplelru.LRU
	opts    Options
	logger  *zap.Logger

	hits      atomic.Int64
	fuzzyHits atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

func New(opts Options, logger *zap.Logger) (*SimilarityCache, error) {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.MinWordLen <= 0 {
		opts.MinWordLen = DefaultMinWordLen
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &SimilarityCache{opts: opts, logger: logger}
	entries, err := simplelru.NewLRU(opts.Capacity, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create cache storage: %w", err)
	}
	c.entries = entries
	return c, nil
}

// onEvict runs under the write lock held by Insert.
func (c *SimilarityCache) onEvict(key interface{}, _ interface{}) {
	c.evictions.Add(1)
	c.logger.Debug("Evicted cache entry", zap.String("key", key.(string)))
}

func (c *SimilarityCache) expired(e *Entry, now time.Time) bool {
	return now.Sub(e.CreatedAt) >= c.opts.TTL
}

// LookupExact returns the entry stored under the normalized question.
// An expired entry is reported as absent but left in place.
func (c *SimilarityCache) LookupExact(question string) (Entry, bool) {
	key := Normalize(question)
	now := c.opts.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.peek(key); ok && !c.expired(e, now) {
		return *e, true
	}
	return Entry{}, false
}

// LookupSimilar checks the exact key first and then walks resident entries
// oldest-first, returning the first one whose word overlap with the question
// reaches the threshold. The first qualifying entry wins even if a later one
// scores higher.
func (c *SimilarityCache) LookupSimilar(question string) (Entry, float64, bool) {
	key := Normalize(question)
	query := c.words(key)
	now := c.opts.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.peek(key); ok && !c.expired(e, now) {
		return *e, 1, true
	}

	for _, k := range c.entries.Keys() {
		e, ok := c.peek(k.(string))
		if !ok || c.expired(e, now) {
			continue
		}
		similarity := overlap(query, c.words(e.Key))
		if similarity >= c.opts.Threshold {
			c.logger.Debug("Cache hit by similarity",
				zap.String("cached_key", e.Key),
				zap.Int("similarity_pct", int(similarity*100+0.5)))
			return *e, similarity, true
		}
	}
	return Entry{}, 0, false
}

// Lookup tries an exact match and then a similarity match, recording
// hit/miss counts.
func (c *SimilarityCache) Lookup(question string) (Entry, bool) {
	if e, ok := c.LookupExact(question); ok {
		c.hits.Add(1)
		return e, true
	}
	e, _, ok := c.LookupSimilar(question)
	if !ok {
		c.misses.Add(1)
		return Entry{}, false
	}
	c.hits.Add(1)
	c.fuzzyHits.Add(1)
	return e, true
}

// Insert stores the entry under its own normalized key, evicting the oldest
// insert when the cache grows past capacity. Re-inserting a key replaces the
// stored answer and makes it the newest entry.
func (c *SimilarityCache) Insert(entry Entry) {
	entry.Key = Normalize(entry.Key)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.opts.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Add(entry.Key, &entry)
}

// Len returns the number of resident entries, expired ones included.
func (c *SimilarityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries.Len()
}

// Purge drops every entry.
func (c *SimilarityCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Purge fires the eviction callback; dropping everything is not an eviction.
	evicted := c.evictions.Load()
	c.entries.Purge()
	c.evictions.Store(evicted)
}

func (c *SimilarityCache) Stats() Stats {
	return Stats{
		Entries:    c.Len(),
		Hits:       c.hits.Load(),
		FuzzyHits:  c.fuzzyHits.Load(),
		Misses:     c.misses.Load(),
		Evictions:  c.evictions.Load(),
		Capacity:   c.opts.Capacity,
		TTLSeconds: int64(c.opts.TTL / time.Second),
	}
}

// peek must be called with mu held. Peek leaves the recency list untouched.
func (c *SimilarityCache) peek(key string) (*Entry, bool) {
	v, ok := c.entries.Peek(key)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// wordSet splits a normalized key into its distinct long words, which count
// towards similarity, and its distinct short words, which only count when
// the two questions disagree on them.
type wordSet struct {
	long  map[string]struct{}
	short map[string]struct{}
}

func (c *SimilarityCache) words(normalized string) wordSet {
	ws := wordSet{long: make(map[string]struct{}), short: make(map[string]struct{})}
	for _, w := range Tokens(normalized) {
		if utf8.RuneCountInString(w) >= c.opts.MinWordLen {
			ws.long[w] = struct{}{}
		} else {
			ws.short[w] = struct{}{}
		}
	}
	return ws
}

// overlap is |long(a) ∩ long(b)| / (max(|long(a)|, |long(b)|) + |short(a) △ short(b)|).
// Shared short words are ignored, but a short word present on only one side
// ("troop a" vs "troop c", "the age" vs "the pay") counts as a mismatch.
func overlap(a, b wordSet) float64 {
	mismatched := 0
	for w := range a.short {
		if _, ok := b.short[w]; !ok {
			mismatched++
		}
	}
	for w := range b.short {
		if _, ok := a.short[w]; !ok {
			mismatched++
		}
	}

	denominator := max(len(a.long), len(b.long)) + mismatched
	if denominator == 0 {
		return 0
	}
	common := 0
	for w := range a.long {
		if _, ok := b.long[w]; ok {
			common++
		}
	}
	return float64(common) / float64(denominator)
}
