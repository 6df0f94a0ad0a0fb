package feedcache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feedrank/feedrank/internal/domain"
)

func page(ids ...string) *domain.FeedPage {
	p := &domain.FeedPage{Done: len(ids) == 0}
	for _, id := range ids {
		p.Feed = append(p.Feed, domain.RankedEntry{
			Candidate: domain.Candidate{Post: domain.Post{ID: id}},
		})
	}
	if len(ids) > 0 {
		p.NextCursor = ids[len(ids)-1]
	}
	return p
}

func TestCache_GetPut(t *testing.T) {
	t.Parallel()

	c := New()

	_, ok := c.Get("missing")
	require.False(t, ok)

	want := page("post-0")
	c.Put("k", want)

	got, ok := c.Get("k")
	require.True(t, ok)
	require.Same(t, want, got)

	stats := c.GetStats()
	require.EqualValues(t, 1, stats.Hits)
	require.EqualValues(t, 1, stats.Misses)
	require.Equal(t, 1, stats.Keys)
}

func TestCache_NeverEvicts(t *testing.T) {
	t.Parallel()

	c := New()
	for i := 0; i < 1000; i++ {
		c.Put(fmt.Sprintf("k%d", i), page())
	}

	// Every key is still resident; there is no TTL, bound, or invalidation.
	for i := 0; i < 1000; i++ {
		_, ok := c.Get(fmt.Sprintf("k%d", i))
		require.True(t, ok)
	}
	require.Equal(t, 1000, c.GetStats().Keys)
}

func TestCache_OverwriteLastWriterWins(t *testing.T) {
	t.Parallel()

	c := New()
	first := page("post-0")
	second := page("post-0")

	c.Put("k", first)
	c.Put("k", second)

	got, ok := c.Get("k")
	require.True(t, ok)
	require.Same(t, second, got)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", j%10)
				if n%2 == 0 {
					c.Put(key, page("post-0"))
				} else {
					c.Get(key)
				}
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 10, c.GetStats().Keys)
}
