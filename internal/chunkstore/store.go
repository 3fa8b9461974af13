package chunkstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"blaze/internal/blazeerr"
	"blaze/internal/callgroup"
	"blaze/internal/hasher"
	"blaze/internal/pool"
)

// fanoutPrefixLen is how many leading hex characters of a digest become
// the containing subdirectory, grounded on original_source/src/chunks.rs's
// get_chunk_path (2-character subdirectory) and the teacher's own
// fan-out chunk layout.
const fanoutPrefixLen = 2

// similaritySizeToleranceNum/similaritySizeToleranceDen is the fraction of
// a chunk's size within which a
// candidate base chunk is considered for delta comparison.
const similaritySizeToleranceNum, similaritySizeToleranceDen = 1, 10

// similarityThreshold is the minimum byte-overlap score a base candidate
// must reach before it is used to delta-encode a new chunk.
const similarityThreshold = 0.7

// ErrMissingChunk is returned by Get/GetBatch when a requested digest has
// no corresponding record on disk.
var ErrMissingChunk = blazeerr.New(blazeerr.Chunk, "chunk not found")

// Store persists chunks under dir in a two-level fan-out layout, applying
// compression and opportunistic delta encoding on write.
type Store struct {
	dir   string
	pool  *pool.Pool
	cache *cache
	puts  callgroup.Group[hasher.Digest]
}

// New returns a Store rooted at dir, creating it if necessary. maxCacheBytes
// <= 0 uses the package default.
func New(dir string, p *pool.Pool, maxCacheBytes int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, blazeerr.Wrap(blazeerr.Filesystem, "create chunk store directory", err)
	}
	if p == nil {
		p = pool.New(1)
	}
	return &Store{dir: dir, pool: p, cache: newCache(maxCacheBytes)}, nil
}

func (s *Store) path(d hasher.Digest) string {
	str := string(d)
	if len(str) < fanoutPrefixLen {
		return filepath.Join(s.dir, str)
	}
	return filepath.Join(s.dir, str[:fanoutPrefixLen], str[fanoutPrefixLen:])
}

// Exists reports whether d is present, consulting the in-memory caches
// before the filesystem.
func (s *Store) Exists(d hasher.Digest) bool {
	if s.cache.knownExists(d) {
		return true
	}
	if s.cache.knownMissing(d) {
		return false
	}
	if _, err := os.Stat(s.path(d)); err == nil {
		s.cache.markExists(d)
		return true
	}
	s.cache.markMissing(d)
	return false
}

// Put writes raw under digest d if not already present, choosing a delta
// encoding over a base candidate when one is similar enough and plain
// compression otherwise.
// Put persists raw under digest d, skipping the write if d already exists.
// Concurrent Put calls for the same digest (two different files in one add
// producing an identical chunk) are deduplicated so only one of them
// encodes and writes; the rest wait for and share that result.
func (s *Store) Put(ctx context.Context, d hasher.Digest, raw []byte) error {
	return <-s.puts.DoChan(d, func() error {
		if s.Exists(d) {
			return nil
		}

		record, base, depth := s.encode(d, raw)

		if err := s.writeAtomic(s.path(d), record); err != nil {
			return err
		}

		s.cache.put(d, raw)
		s.cache.markExists(d)
		if base != "" {
			s.cache.recordDelta(base, d, depth)
		} else {
			s.cache.addBaseCandidate(d, len(raw))
		}
		return nil
	})
}

// encode chooses between delta and direct compression for raw, returning
// the final on-disk record plus the base digest used (empty if none) and
// the resulting chain depth.
func (s *Store) encode(d hasher.Digest, raw []byte) (record []byte, base hasher.Digest, depth int) {
	if len(raw) > deltaMinSize {
		if candidate, baseData, baseDepth, ok := s.findDeltaBase(raw); ok {
			delta := createDelta(baseData, raw)
			if deltaWorthwhile(delta, raw) {
				compressedDelta, err := compress(delta)
				if err == nil {
					return encodeDeltaRecord(candidate, compressedDelta), candidate, baseDepth + 1
				}
			}
		}
	}

	rec, err := compress(raw)
	if err != nil {
		// compress only fails on encoder construction; fall back to raw.
		return encodeRecord(TagRaw, raw), "", 0
	}
	return rec, "", 0
}

// findDeltaBase looks for a previously stored chunk similar enough to raw
// to diff against, skipping candidates whose chain depth is already at
// maxDeltaChainDepth.
func (s *Store) findDeltaBase(raw []byte) (digest hasher.Digest, data []byte, depth int, ok bool) {
	tolerance := len(raw) * similaritySizeToleranceNum / similaritySizeToleranceDen
	for _, candidate := range s.cache.baseCandidates(len(raw), tolerance) {
		d := s.cache.depthOf(candidate)
		if d >= maxDeltaChainDepth {
			continue
		}
		baseData, ok := s.cache.get(candidate)
		if !ok {
			loaded, err := s.loadRaw(candidate)
			if err != nil {
				continue
			}
			baseData = loaded
		}
		if similarity(baseData, raw) >= similarityThreshold {
			return candidate, baseData, d, true
		}
	}
	return "", nil, 0, false
}

// similarity scores byte-position overlap between a and b in [0,1],
// penalized for length mismatch. Grounded on
// original_source/src/chunks.rs's calculate_similarity.
func similarity(a, b []byte) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	minLen, maxLen := len(a), len(b)
	if minLen > maxLen {
		minLen, maxLen = maxLen, minLen
	}
	matching := 0
	for i := 0; i < minLen; i++ {
		if a[i] == b[i] {
			matching++
		}
	}
	sizePenalty := float64(maxLen-minLen) / float64(maxLen)
	base := float64(matching) / float64(minLen)
	return base * (1 - sizePenalty*0.5)
}

// Get reconstructs the chunk stored under digest d, walking at most
// maxDeltaChainDepth delta hops.
func (s *Store) Get(ctx context.Context, d hasher.Digest) ([]byte, error) {
	if data, ok := s.cache.get(d); ok {
		return data, nil
	}
	data, err := s.loadRaw(d)
	if err != nil {
		return nil, err
	}
	s.cache.put(d, data)
	return data, nil
}

// loadRaw reads and decodes the record for d directly from disk, resolving
// a delta chain if necessary.
func (s *Store) loadRaw(d hasher.Digest) ([]byte, error) {
	record, err := os.ReadFile(s.path(d))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissingChunk
		}
		return nil, blazeerr.Wrap(blazeerr.IO, fmt.Sprintf("read chunk %s", d), err)
	}

	tag, payload, err := decodeRecord(record)
	if err != nil {
		return nil, err
	}
	if tag != TagDelta {
		return decompress(record)
	}

	baseDigest, compressedDelta, err := decodeDeltaRecord(payload)
	if err != nil {
		return nil, err
	}
	baseData, err := s.Get(context.Background(), baseDigest)
	if err != nil {
		return nil, blazeerr.Wrap(blazeerr.Chunk, fmt.Sprintf("load delta base for %s", d), err)
	}
	delta, err := decompress(compressedDelta)
	if err != nil {
		return nil, err
	}
	return applyDelta(baseData, delta)
}

func (s *Store) writeAtomic(path string, record []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return blazeerr.Wrap(blazeerr.Filesystem, "create chunk subdirectory", err)
	}
	tmp, err := os.CreateTemp(dir, ".chunk-*.tmp")
	if err != nil {
		return blazeerr.Wrap(blazeerr.IO, "create temp chunk file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(record); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return blazeerr.Wrap(blazeerr.IO, "write chunk data", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return blazeerr.Wrap(blazeerr.IO, "sync chunk data", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return blazeerr.Wrap(blazeerr.IO, "close temp chunk file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return blazeerr.Wrap(blazeerr.IO, "rename chunk into place", err)
	}
	return nil
}

// PutBatch stores many chunks concurrently, bounded by the store's pool.
// Delta base selection happens inside each concurrent Put against the
// shared cache, so a chunk can diff against a batch sibling only if that
// sibling has already been written when its selection runs.
func (s *Store) PutBatch(ctx context.Context, chunks map[hasher.Digest][]byte) error {
	digests := make([]hasher.Digest, 0, len(chunks))
	for d := range chunks {
		digests = append(digests, d)
	}
	fns := make([]func(ctx context.Context) error, len(digests))
	for i, d := range digests {
		d := d
		fns[i] = func(ctx context.Context) error {
			return s.Put(ctx, d, chunks[d])
		}
	}
	return s.pool.Go(ctx, fns)
}

// GetBatch reconstructs many chunks concurrently.
func (s *Store) GetBatch(ctx context.Context, digests []hasher.Digest) (map[hasher.Digest][]byte, error) {
	out := make(map[hasher.Digest][]byte, len(digests))
	var mu sync.Mutex
	fns := make([]func(ctx context.Context) error, len(digests))
	for i, d := range digests {
		d := d
		fns[i] = func(ctx context.Context) error {
			data, err := s.Get(ctx, d)
			if err != nil {
				return err
			}
			mu.Lock()
			out[d] = data
			mu.Unlock()
			return nil
		}
	}
	if err := s.pool.Go(ctx, fns); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of chunk records on disk.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.walk(func(string, int64) error {
		count++
		return nil
	})
	return count, err
}

// StorageSize returns the total bytes occupied by chunk records on disk.
func (s *Store) StorageSize() (int64, error) {
	var total int64
	err := s.walk(func(_ string, size int64) error {
		total += size
		return nil
	})
	return total, err
}

// CountUnreferenced reports how many on-disk chunks are not present in
// active, without removing anything. Used by optimize's --dry-run path to
// report what a real GC would do.
func (s *Store) CountUnreferenced(active map[hasher.Digest]struct{}) (int, error) {
	count := 0
	err := s.walk(func(path string, _ int64) error {
		digest := hasher.Digest(filepath.Base(filepath.Dir(path)) + filepath.Base(path))
		if _, ok := active[digest]; !ok {
			count++
		}
		return nil
	})
	return count, err
}

// GC removes on-disk chunks whose digest is not present in active.
func (s *Store) GC(active map[hasher.Digest]struct{}) (int, error) {
	removed := 0
	subdirs, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, blazeerr.Wrap(blazeerr.Filesystem, "read chunk store directory", err)
	}
	for _, sub := range subdirs {
		if !sub.IsDir() {
			continue
		}
		subPath := filepath.Join(s.dir, sub.Name())
		entries, err := os.ReadDir(subPath)
		if err != nil {
			return removed, blazeerr.Wrap(blazeerr.Filesystem, "read chunk subdirectory", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			digest := hasher.Digest(sub.Name() + entry.Name())
			if _, ok := active[digest]; ok {
				continue
			}
			if err := os.Remove(filepath.Join(subPath, entry.Name())); err != nil {
				return removed, blazeerr.Wrap(blazeerr.Filesystem, "remove unreferenced chunk", err)
			}
			s.cache.markMissing(digest)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) walk(fn func(path string, size int64) error) error {
	subdirs, err := os.ReadDir(s.dir)
	if err != nil {
		return blazeerr.Wrap(blazeerr.Filesystem, "read chunk store directory", err)
	}
	for _, sub := range subdirs {
		if !sub.IsDir() {
			continue
		}
		subPath := filepath.Join(s.dir, sub.Name())
		entries, err := os.ReadDir(subPath)
		if err != nil {
			return blazeerr.Wrap(blazeerr.Filesystem, "read chunk subdirectory", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return blazeerr.Wrap(blazeerr.Filesystem, "stat chunk file", err)
			}
			if err := fn(filepath.Join(subPath, entry.Name()), info.Size()); err != nil {
				return err
			}
		}
	}
	return nil
}
