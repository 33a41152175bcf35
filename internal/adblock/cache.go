package adblock

// Default cache parameters.
const (
	DefaultChunkSize = 50
	DefaultMaxChunks = 10
)

// cacheChunk is a batch of cached verdicts that is evicted as a whole.
type cacheChunk map[string]bool

// Cache is a bounded cache of verdicts.  The entries are stored in chunks of a
// fixed size, and when there are too many chunks, the oldest chunk is removed
// as a whole.  Cache is not safe for concurrent use.
//
// The entries are never removed individually, and a key is not checked for
// presence in the older chunks on insertion.  If a key is present in several
// chunks, [Cache.Get] returns the value from the oldest one.
type Cache struct {
	// chunks are ordered from the oldest to the newest.
	chunks    []cacheChunk
	chunkSize int
	maxChunks int
}

// NewCache returns a new empty cache that keeps at most maxChunks chunks with
// at most chunkSize entries each.  Both must be positive.
func NewCache(chunkSize, maxChunks int) (c *Cache) {
	return &Cache{
		chunks:    make([]cacheChunk, 0, maxChunks),
		chunkSize: chunkSize,
		maxChunks: maxChunks,
	}
}

// Get returns the cached verdict for key.  The chunks are scanned from the
// oldest to the newest.
func (c *Cache) Get(key string) (blocked, ok bool) {
	for _, chunk := range c.chunks {
		blocked, ok = chunk[key]
		if ok {
			return blocked, true
		}
	}

	return false, false
}

// Set adds the verdict for key into the newest chunk, evicting the oldest
// chunk if necessary.
func (c *Cache) Set(key string, blocked bool) {
	last := len(c.chunks) - 1
	if last < 0 || len(c.chunks[last]) >= c.chunkSize {
		if len(c.chunks) >= c.maxChunks {
			c.evictOldest()
		}

		c.chunks = append(c.chunks, make(cacheChunk, c.chunkSize))
		last = len(c.chunks) - 1
	}

	c.chunks[last][key] = blocked
}

// evictOldest removes the oldest chunk.
func (c *Cache) evictOldest() {
	c.chunks[0] = nil
	c.chunks = append(c.chunks[:0], c.chunks[1:]...)
}

// Len returns the total number of entries in the cache.
func (c *Cache) Len() (n int) {
	for _, chunk := range c.chunks {
		n += len(chunk)
	}

	return n
}

// ChunksLen returns the number of chunks in the cache.
func (c *Cache) ChunksLen() (n int) {
	return len(c.chunks)
}

// ChunkLens returns the numbers of entries in each chunk, from the oldest to
// the newest.
func (c *Cache) ChunkLens() (lens []int) {
	lens = make([]int, 0, len(c.chunks))
	for _, chunk := range c.chunks {
		lens = append(lens, len(chunk))
	}

	return lens
}
