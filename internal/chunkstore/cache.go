package chunkstore

import (
	"sync"

	"blaze/internal/hasher"
)

// defaultMaxCacheSize bounds the in-memory decoded-chunk cache, mirroring
// original_source/src/chunks.rs's 64MB default.
const defaultMaxCacheSize = 64 * 1024 * 1024

// cache holds the store's in-memory state: decoded chunk bytes (bounded,
// FIFO-evicted), existence/negative membership, and the delta index used
// to find a base chunk to diff new data against. Grounded on
// original_source/src/chunks.rs's ChunkStore fields, generalized from a
// single-writer struct to a concurrency-safe one since this store is used
// from a worker pool (spec §9).
type cache struct {
	mu sync.RWMutex

	maxBytes     int
	curBytes     int
	order        []hasher.Digest
	data         map[hasher.Digest][]byte
	exists       map[hasher.Digest]struct{}
	negative     map[hasher.Digest]struct{}
	deltaChunks  map[hasher.Digest][]hasher.Digest // base -> chunks stored as deltas against it
	chainDepth   map[hasher.Digest]int             // digest -> delta chain depth (0 for non-delta chunks)

	baseOrder []hasher.Digest      // recently stored non-delta chunks, FIFO, candidates to diff against
	baseSize  map[hasher.Digest]int
}

// maxBaseCandidates bounds how many past chunks are kept as delta-base
// candidates, so the similarity scan stays cheap as the store grows.
const maxBaseCandidates = 512

func newCache(maxBytes int) *cache {
	if maxBytes <= 0 {
		maxBytes = defaultMaxCacheSize
	}
	return &cache{
		maxBytes:    maxBytes,
		data:        make(map[hasher.Digest][]byte),
		exists:      make(map[hasher.Digest]struct{}),
		negative:    make(map[hasher.Digest]struct{}),
		deltaChunks: make(map[hasher.Digest][]hasher.Digest),
		chainDepth:  make(map[hasher.Digest]int),
		baseSize:    make(map[hasher.Digest]int),
	}
}

// addBaseCandidate records a non-delta chunk as eligible to be diffed
// against by future similar chunks, evicting the oldest once the bound is
// exceeded.
func (c *cache) addBaseCandidate(d hasher.Digest, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.baseSize[d]; ok {
		return
	}
	c.baseOrder = append(c.baseOrder, d)
	c.baseSize[d] = size
	if len(c.baseOrder) > maxBaseCandidates {
		oldest := c.baseOrder[0]
		c.baseOrder = c.baseOrder[1:]
		delete(c.baseSize, oldest)
	}
}

// baseCandidates returns base-candidate digests within sizeTolerance bytes
// of targetSize.
func (c *cache) baseCandidates(targetSize, sizeTolerance int) []hasher.Digest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []hasher.Digest
	for _, d := range c.baseOrder {
		diff := c.baseSize[d] - targetSize
		if diff < 0 {
			diff = -diff
		}
		if diff <= sizeTolerance {
			out = append(out, d)
		}
	}
	return out
}

func (c *cache) get(d hasher.Digest) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.data[d]
	return b, ok
}

// put stores data in the cache, evicting the oldest entries FIFO-style
// until there is room. Data larger than a quarter of the budget is never
// cached, matching the teacher's ratio for skipping oversized entries.
func (c *cache) put(d hasher.Digest, data []byte) {
	if len(data) > c.maxBytes/4 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[d]; ok {
		return
	}
	for c.curBytes+len(data) > c.maxBytes && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		c.curBytes -= len(c.data[oldest])
		delete(c.data, oldest)
	}
	c.data[d] = data
	c.order = append(c.order, d)
	c.curBytes += len(data)
}

func (c *cache) markExists(d hasher.Digest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exists[d] = struct{}{}
	delete(c.negative, d)
}

// markMissing invalidates d as the mirror image of markExists: it clears
// the positive caches (existence and decoded bytes) as well as setting the
// negative one, so a chunk removed by GC stops reporting Exists() == true
// or serving stale bytes out of the decoded-chunk cache.
func (c *cache) markMissing(d hasher.Digest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negative[d] = struct{}{}
	delete(c.exists, d)
	if data, ok := c.data[d]; ok {
		c.curBytes -= len(data)
		delete(c.data, d)
		for i, od := range c.order {
			if od == d {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

func (c *cache) knownExists(d hasher.Digest) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.exists[d]
	return ok
}

func (c *cache) knownMissing(d hasher.Digest) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.negative[d]
	return ok
}

func (c *cache) recordDelta(base, child hasher.Digest, depth int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deltaChunks[base] = append(c.deltaChunks[base], child)
	c.chainDepth[child] = depth
}

func (c *cache) depthOf(d hasher.Digest) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chainDepth[d]
}

// deltaSiblings returns the digests previously stored as deltas against
// base, a cheap first guess for a delta base before falling back to a full
// similarity scan (spec §4.3 / original_source find_similar_chunk).
func (c *cache) deltaSiblings(base hasher.Digest) []hasher.Digest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deltaChunks[base]
}

func (c *cache) stats() (entries, bytes, maxBytes int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data), c.curBytes, c.maxBytes
}
