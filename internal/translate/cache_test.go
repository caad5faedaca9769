package translate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCache_GetMissesWhenEmpty(t *testing.T) {
	c := NewCache(nil, 0)
	_, ok := c.Get(1, "fr")
	require.False(t, ok)
}

func TestCache_SetThenGetRoundTrips(t *testing.T) {
	c := NewCache(nil, 0)
	c.Set(1, "fr", "bonjour")

	val, ok := c.Get(1, "fr")
	require.True(t, ok)
	require.Equal(t, "bonjour", val)
}

func TestCache_KeysAreScopedByMessageAndLanguage(t *testing.T) {
	c := NewCache(nil, 0)
	c.Set(1, "fr", "bonjour")
	c.Set(1, "de", "hallo")
	c.Set(2, "fr", "different message")

	val, ok := c.Get(1, "de")
	require.True(t, ok)
	require.Equal(t, "hallo", val)

	val, ok = c.Get(2, "fr")
	require.True(t, ok)
	require.Equal(t, "different message", val)
}

func TestCache_EvictsLeastRecentlyUsedPastCapacity(t *testing.T) {
	c := NewCache(nil, 0)
	c.capacity = 2

	c.Set(1, "fr", "one")
	c.Set(2, "fr", "two")
	// touch entry 1 so entry 2 becomes least-recently-used
	_, _ = c.Get(1, "fr")
	c.Set(3, "fr", "three")

	_, ok := c.Get(2, "fr")
	require.False(t, ok, "least-recently-used entry should have been evicted")

	_, ok = c.Get(1, "fr")
	require.True(t, ok)
	_, ok = c.Get(3, "fr")
	require.True(t, ok)
}
