// Package chunker splits a file byte stream into an ordered list of
// fixed-size chunks (spec §4.2). Large files are read via mmap and their
// chunks hashed in parallel; small files use a buffered sequential read.
// Grounded on the teacher's internal/chunk/file mmap reader
// (syscall.Mmap-backed random access) generalized from record-at-offset
// reads to whole-chunk reads.
package chunker

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"blaze/internal/hasher"
	"blaze/internal/pool"
)

// DefaultChunkSize is the spec's default CHUNK_SIZE (64 KiB).
const DefaultChunkSize = 64 * 1024

// LargeFileThreshold selects the mmap read strategy over buffered reads;
// it governs read strategy only, not chunk size (spec §4.2).
const LargeFileThreshold = 100 * 1024 * 1024

// Chunk is one ordered, content-addressed byte range of a file.
type Chunk struct {
	Digest hasher.Digest
	Data   []byte
}

// Chunker splits files into Chunks of at most Size bytes.
type Chunker struct {
	Size  int
	Pool  *pool.Pool
}

// New returns a Chunker with the given chunk size. A size <= 0 uses
// DefaultChunkSize. p may be nil, in which case a single-worker pool is
// used (chunking proceeds sequentially).
func New(size int, p *pool.Pool) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if p == nil {
		p = pool.New(1)
	}
	return &Chunker{Size: size, Pool: p}
}

// ChunkFile splits the file at path into an ordered list of chunks.
// Empty files yield a single empty chunk; a file whose length is an exact
// multiple of Size yields exactly that many chunks with no trailing empty
// chunk.
func (c *Chunker) ChunkFile(ctx context.Context, path string) ([]Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.Size() == 0 {
		return []Chunk{{Data: []byte{}, Digest: hasher.Sum(nil)}}, nil
	}

	if info.Size() >= LargeFileThreshold {
		return c.chunkMmap(ctx, path, info.Size())
	}
	return c.chunkBuffered(path, info.Size())
}

// chunkBuffered reads the file sequentially in Size-byte windows. Used for
// files below LargeFileThreshold, where the overhead of mmap setup and
// parallel hashing outweighs the benefit.
func (c *Chunker) chunkBuffered(path string, size int64) ([]Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	n := int((size + int64(c.Size) - 1) / int64(c.Size))
	chunks := make([]Chunk, 0, n)
	buf := make([]byte, c.Size)
	for {
		read, err := io.ReadFull(f, buf)
		if read > 0 {
			data := make([]byte, read)
			copy(data, buf[:read])
			chunks = append(chunks, Chunk{Data: data, Digest: hasher.Sum(data)})
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return chunks, nil
}

// chunkMmap memory-maps the file and hashes fixed-offset windows in
// parallel via the configured pool, then assembles the ordered result.
// Grounded on internal/chunk/file/mmap_reader.go's syscall.Mmap usage.
func (c *Chunker) chunkMmap(ctx context.Context, path string, size int64) ([]Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	defer syscall.Munmap(data)

	n := int((size + int64(c.Size) - 1) / int64(c.Size))
	chunks := make([]Chunk, n)

	fns := make([]func(ctx context.Context) error, n)
	for i := 0; i < n; i++ {
		i := i
		fns[i] = func(ctx context.Context) error {
			start := i * c.Size
			end := start + c.Size
			if end > len(data) {
				end = len(data)
			}
			window := make([]byte, end-start)
			copy(window, data[start:end])
			chunks[i] = Chunk{Data: window, Digest: hasher.Sum(window)}
			return nil
		}
	}
	if err := c.Pool.Go(ctx, fns); err != nil {
		return nil, fmt.Errorf("chunk %s: %w", path, err)
	}
	return chunks, nil
}
