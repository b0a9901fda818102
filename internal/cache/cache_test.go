package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGet_MissOnAbsentKey(t *testing.T) {
	c := New(10, time.Minute)
	_, ok := c.Get("missing")
	require.False(t, ok)
	require.Equal(t, 1, c.Stats().Misses)
}

func TestGet_ExpiredEntryCountsAsMiss(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("k", "v", time.Nanosecond)
	time.Sleep(time.Millisecond)
	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestHitRate(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("k", "v", 0)
	c.Get("k")
	c.Get("k")
	c.Get("missing")
	stats := c.Stats()
	require.Equal(t, 2, stats.Hits)
	require.Equal(t, 1, stats.Misses)
	require.InDelta(t, 2.0/3.0, stats.HitRate, 0.0001)
}

func TestLRUEviction(t *testing.T) {
	c := New(3, time.Minute)
	c.Set("k1", "v1", 0)
	c.Set("k2", "v2", 0)
	c.Set("k3", "v3", 0)
	c.Get("k1")
	c.Set("k4", "v4", 0)

	_, ok := c.Get("k2")
	require.False(t, ok, "k2 should have been evicted")

	for _, k := range []string{"k1", "k3", "k4"} {
		_, ok := c.Get(k)
		require.True(t, ok, "%s should remain", k)
	}
}

func TestSet_ExistingKeyPreservesAccessCount(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("k", "v1", 0)
	c.Get("k")
	c.Get("k")
	c.Set("k", "v2", 0)

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v2", v)
}

func TestDefaultSingleton_ResetIsolatesTests(t *testing.T) {
	ResetDefault()
	a := Default()
	a.Set("k", "v", 0)

	ResetDefault()
	b := Default()
	_, ok := b.Get("k")
	require.False(t, ok)
}
