package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(u, body string) models.FetchResult {
	return models.FetchResult{URL: u, Success: true, StatusCode: 200, Content: body}
}

func TestMemoryCache_GetSet(t *testing.T) {
	mc := NewMemoryCache(0)
	defer mc.Close()

	_, ok := mc.Get("https://www.mecsr.org/a/")
	assert.False(t, ok)

	require.NoError(t, mc.Set("https://www.mecsr.org/a/", page("https://www.mecsr.org/a/", "<h1>A</h1>"), time.Minute))
	got, ok := mc.Get("https://www.mecsr.org/a/")
	require.True(t, ok)
	assert.Equal(t, "<h1>A</h1>", got.Content)

	stats := mc.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 50.0, stats.HitRate, 1e-9)
}

func TestMemoryCache_Expiry(t *testing.T) {
	mc := NewMemoryCache(0)
	defer mc.Close()

	require.NoError(t, mc.Set("k", page("k", "x"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, ok := mc.Get("k")
	assert.False(t, ok)
	assert.Zero(t, mc.Stats().Entries)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	body := strings.Repeat("x", 1000)
	// Each entry is ~2KB; room for two.
	mc := NewMemoryCache(4200)
	defer mc.Close()

	require.NoError(t, mc.Set("a", page("a", body), time.Minute))
	require.NoError(t, mc.Set("b", page("b", body), time.Minute))
	_, _ = mc.Get("a")
	require.NoError(t, mc.Set("c", page("c", body), time.Minute))

	_, okA := mc.Get("a")
	_, okB := mc.Get("b")
	_, okC := mc.Get("c")
	assert.True(t, okA)
	assert.False(t, okB, "b was least recently used")
	assert.True(t, okC)
}

func TestMemoryCache_ReplaceAndClear(t *testing.T) {
	mc := NewMemoryCache(0)
	defer mc.Close()

	require.NoError(t, mc.Set("k", page("k", "old"), time.Minute))
	require.NoError(t, mc.Set("k", page("k", "new"), time.Minute))
	got, ok := mc.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", got.Content)
	assert.Equal(t, 1, mc.Stats().Entries)

	require.NoError(t, mc.Delete("k"))
	require.NoError(t, mc.Delete("missing"))
	require.NoError(t, mc.Set("j", page("j", "x"), 0))
	require.NoError(t, mc.Clear())
	assert.Zero(t, mc.Stats().Entries)
	assert.Zero(t, mc.Stats().SizeBytes)
}
