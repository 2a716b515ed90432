package verdictcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/popguard/internal/guard/domain"
)

func TestCache_HitMissAndPut(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	_, ok := c.Get("https://popads.net/")
	assert.False(t, ok, "expected miss before put")

	c.Put("https://popads.net/", domain.VerdictBlocked)
	got, ok := c.Get("https://popads.net/")
	assert.True(t, ok)
	assert.Equal(t, domain.VerdictBlocked, got)

	st := c.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
	assert.Equal(t, 2, st.Capacity)
	assert.Equal(t, 1, st.Size)
}

func TestCache_EvictionAndPurge(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)
	c.Put("a", domain.VerdictNeutral)
	c.Put("b", domain.VerdictTrusted)
	c.Put("c", domain.VerdictSuspicious)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, uint64(1), c.Stats().Evictions)

	_, ok := c.Get("a")
	assert.False(t, ok, "least recently used entry evicted")

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(3), c.Stats().Evictions)
}

func TestCache_Disabled(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)
	c.Put("x", domain.VerdictBlocked)
	_, ok := c.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	c.Purge()
	assert.Equal(t, Stats{}, c.Stats())
}
