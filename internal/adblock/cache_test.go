package adblock_test

import (
	"strconv"
	"testing"

	"github.com/csslayer/browser-ios/internal/adblock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKey returns a unique cache key for i.
func testKey(i int) (key string) {
	return "example.com_https://ads.example.net/" + strconv.Itoa(i)
}

func TestCache_bounds(t *testing.T) {
	t.Parallel()

	c := adblock.NewCache(adblock.DefaultChunkSize, adblock.DefaultMaxChunks)

	const total = adblock.DefaultChunkSize*adblock.DefaultMaxChunks*3 + 7
	for i := range total {
		c.Set(testKey(i), i%2 == 0)

		require.LessOrEqual(t, c.ChunksLen(), adblock.DefaultMaxChunks)
		for _, l := range c.ChunkLens() {
			require.LessOrEqual(t, l, adblock.DefaultChunkSize)
		}
	}

	assert.Equal(t, adblock.DefaultMaxChunks, c.ChunksLen())
	assert.Equal(t, adblock.DefaultChunkSize*(adblock.DefaultMaxChunks-1)+7, c.Len())
}

func TestCache_eviction(t *testing.T) {
	t.Parallel()

	const (
		chunkSize = 50
		maxChunks = 10
	)

	c := adblock.NewCache(chunkSize, maxChunks)

	// Fill the cache completely.
	for i := range chunkSize * maxChunks {
		c.Set(testKey(i), true)
	}

	require.Equal(t, maxChunks, c.ChunksLen())
	require.Equal(t, chunkSize*maxChunks, c.Len())

	for i := range chunkSize * maxChunks {
		_, ok := c.Get(testKey(i))
		require.True(t, ok)
	}

	// Start the eleventh chunk.
	newKey := testKey(chunkSize * maxChunks)
	c.Set(newKey, false)

	assert.Equal(t, maxChunks, c.ChunksLen())

	for i := range chunkSize {
		_, ok := c.Get(testKey(i))
		assert.Falsef(t, ok, "key %d from the first chunk", i)
	}

	for i := chunkSize; i < chunkSize*maxChunks; i++ {
		_, ok := c.Get(testKey(i))
		assert.Truef(t, ok, "key %d", i)
	}

	blocked, ok := c.Get(newKey)
	require.True(t, ok)

	assert.False(t, blocked)
}

func TestCache_Get_oldestWins(t *testing.T) {
	t.Parallel()

	const chunkSize = 2

	c := adblock.NewCache(chunkSize, adblock.DefaultMaxChunks)

	dupKey := testKey(0)
	c.Set(dupKey, true)
	c.Set(testKey(1), false)

	// The first chunk is full, so the same key goes into the second one.
	c.Set(dupKey, false)
	require.Equal(t, 2, c.ChunksLen())
	require.Equal(t, []int{2, 1}, c.ChunkLens())

	blocked, ok := c.Get(dupKey)
	require.True(t, ok)

	assert.True(t, blocked)
}

func TestCache_Get_empty(t *testing.T) {
	t.Parallel()

	c := adblock.NewCache(adblock.DefaultChunkSize, adblock.DefaultMaxChunks)

	blocked, ok := c.Get(testKey(0))
	assert.False(t, ok)
	assert.False(t, blocked)

	assert.Zero(t, c.Len())
	assert.Zero(t, c.ChunksLen())
}
