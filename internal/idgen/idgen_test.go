package idgen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextOpaqueID_NeverRepeats(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.NextOpaqueID()
		require.False(t, seen[id], "opaque id %q repeated", id)
		seen[id] = true
	}
}

func TestNextID_IsMonotonicallyIncreasing(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)

	prev := g.NextID()
	for i := 0; i < 100; i++ {
		next := g.NextID()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestNew_DistinctWorkerIDsDoNotShareGenerators(t *testing.T) {
	g1, err := New(1)
	require.NoError(t, err)
	g2, err := New(2)
	require.NoError(t, err)

	require.NotEqual(t, g1.NextOpaqueID(), g2.NextOpaqueID())
}
