package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T) (*SimilarityCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)}
	logger, _ := zap.NewDevelopment()
	c, err := New(Options{Now: clock.Now}, logger)
	require.NoError(t, err)
	return c, clock
}

func TestInsertAndLookupExact(t *testing.T) {
	c, _ := newTestCache(t)

	c.Insert(Entry{Key: "How much does a trooper make?", Reply: "Starting pay is $66,432.", ThreadID: "thread_1"})

	e, ok := c.LookupExact("  HOW much does a trooper make ")
	require.True(t, ok)
	assert.Equal(t, "how much does a trooper make", e.Key)
	assert.Equal(t, "Starting pay is $66,432.", e.Reply)
	assert.Equal(t, "thread_1", e.ThreadID)

	_, ok = c.LookupExact("how much does a sergeant make")
	assert.False(t, ok)
}

func TestCapacityEvictsOldestInsert(t *testing.T) {
	c, _ := newTestCache(t)

	for i := 0; i < DefaultCapacity+1; i++ {
		c.Insert(Entry{Key: fmt.Sprintf("question number %d", i), Reply: "answer"})
	}

	assert.Equal(t, DefaultCapacity, c.Len())
	_, ok := c.LookupExact("question number 0")
	assert.False(t, ok, "first insert should have been evicted")
	_, ok = c.LookupExact("question number 1")
	assert.True(t, ok)
	_, ok = c.LookupExact(fmt.Sprintf("question number %d", DefaultCapacity))
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestReadsDoNotRefreshEvictionOrder(t *testing.T) {
	c, err := New(Options{Capacity: 2}, nil)
	require.NoError(t, err)

	c.Insert(Entry{Key: "first question here", Reply: "1"})
	c.Insert(Entry{Key: "second question here", Reply: "2"})

	// Reading the oldest entry must not protect it from eviction.
	_, ok := c.Lookup("first question here")
	require.True(t, ok)

	c.Insert(Entry{Key: "third question here", Reply: "3"})

	_, ok = c.LookupExact("first question here")
	assert.False(t, ok)
	_, ok = c.LookupExact("second question here")
	assert.True(t, ok)
}

func TestExpiredEntryIsMissButStaysResident(t *testing.T) {
	c, clock := newTestCache(t)

	c.Insert(Entry{Key: "what are the vision requirements", Reply: "20/20 corrected."})
	clock.Advance(DefaultTTL - time.Second)
	_, ok := c.LookupExact("what are the vision requirements")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.LookupExact("what are the vision requirements")
	assert.False(t, ok)
	_, _, ok = c.LookupSimilar("what are the vision requirements")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "expired entries are skipped, not swept")
}

func TestLookupSimilarParaphrase(t *testing.T) {
	c, _ := newTestCache(t)
	c.Insert(Entry{Key: "how much does a trooper make", Reply: "Starting pay is $66,432."})

	e, similarity, ok := c.LookupSimilar("How much money does a trooper make?")
	require.True(t, ok)
	assert.GreaterOrEqual(t, similarity, DefaultThreshold)
	assert.Equal(t, "Starting pay is $66,432.", e.Reply)

	_, _, ok = c.LookupSimilar("where is the academy located")
	assert.False(t, ok)
}

func TestShortWordsDoNotCountTowardsSimilarity(t *testing.T) {
	c, _ := newTestCache(t)
	c.Insert(Entry{Key: "can i do it", Reply: "x"})

	_, _, ok := c.LookupSimilar("can i do it now")
	assert.False(t, ok)
}

func TestLookupSimilarRejectsDifferentShortWords(t *testing.T) {
	tests := []struct {
		name   string
		cached string
		query  string
		want   float64
	}{
		{"different topic", "What is the age?", "What is the pay?", 1.0 / 3},
		{"different troop", "Where is Troop A", "Where is Troop C", 0.5},
		{"extra qualifier", "what is the salary", "what is the salary for troopers", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCache(t)
			c.Insert(Entry{Key: tt.cached, Reply: "cached"})

			_, _, ok := c.LookupSimilar(tt.query)
			assert.False(t, ok)
			assert.InDelta(t, tt.want, overlap(c.words(Normalize(tt.query)), c.words(Normalize(tt.cached))), 1e-9)
		})
	}
}

func TestLookupSimilarIsFirstMatchNotBestMatch(t *testing.T) {
	c, _ := newTestCache(t)

	// Older entry: 3 of 4 significant words shared with the query (0.75).
	c.Insert(Entry{Key: "trooper academy training length", Reply: "older"})
	// Newer entry: identical long words, one unmatched short word (0.8).
	c.Insert(Entry{Key: "the trooper academy training schedule", Reply: "newer"})

	e, similarity, ok := c.LookupSimilar("trooper academy training schedule")
	require.True(t, ok)
	assert.Equal(t, "older", e.Reply)
	assert.InDelta(t, 0.75, similarity, 1e-9)
}

func TestLookupStatsCountHitsAndMisses(t *testing.T) {
	c, _ := newTestCache(t)
	c.Insert(Entry{Key: "how much does a trooper make", Reply: "pay"})

	_, ok := c.Lookup("how much does a trooper make")
	assert.True(t, ok)
	_, ok = c.Lookup("how much money does a trooper make")
	assert.True(t, ok)
	_, ok = c.Lookup("completely unrelated question text")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.FuzzyHits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestReinsertReplacesValue(t *testing.T) {
	c, clock := newTestCache(t)
	c.Insert(Entry{Key: "what is the age limit", Reply: "old"})
	clock.Advance(2 * DefaultTTL)
	c.Insert(Entry{Key: "What is the age limit?", Reply: "new"})

	e, ok := c.LookupExact("what is the age limit")
	require.True(t, ok)
	assert.Equal(t, "new", e.Reply)
	assert.Equal(t, 1, c.Len())
}

func TestPurge(t *testing.T) {
	c, _ := newTestCache(t)
	c.Insert(Entry{Key: "one question", Reply: "1"})
	c.Insert(Entry{Key: "two question", Reply: "2"})
	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Stats().Evictions)
}

func TestConcurrentInsertKeepsCapacity(t *testing.T) {
	c, _ := newTestCache(t)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("worker %d question %d", w, i)
				c.Insert(Entry{Key: key, Reply: "r"})
				c.Lookup(key)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, DefaultCapacity, c.Len())
}
