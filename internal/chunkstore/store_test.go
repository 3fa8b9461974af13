package chunkstore

import (
	"bytes"
	"context"
	"testing"

	"blaze/internal/hasher"
	"blaze/internal/pool"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), pool.New(2), 0)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	data := []byte("hello, world!")
	d := hasher.Sum(data)

	if err := s.Put(context.Background(), d, data); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(context.Background(), d)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("expected round-tripped data to match")
	}
}

func TestPutIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	data := []byte("repeat me")
	d := hasher.Sum(data)
	if err := s.Put(context.Background(), d, data); err != nil {
		t.Fatalf("put 1: %v", err)
	}
	if err := s.Put(context.Background(), d, data); err != nil {
		t.Fatalf("put 2: %v", err)
	}
	if !s.Exists(d) {
		t.Fatalf("expected chunk to exist after repeated put")
	}
}

func TestGetMissingReturnsErrMissingChunk(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), hasher.Digest("0000000000000000000000000000000000000000000000000000000000000000"))
	if err != ErrMissingChunk {
		t.Fatalf("expected ErrMissingChunk, got %v", err)
	}
}

func TestLargeCompressibleChunkRoundTrips(t *testing.T) {
	s := newTestStore(t)
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 50000)
	d := hasher.Sum(data)
	if err := s.Put(context.Background(), d, data); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(context.Background(), d)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("large compressible chunk failed to round-trip")
	}
}

func TestSimilarChunkDeltaEncodesAndRoundTrips(t *testing.T) {
	s := newTestStore(t)
	base := bytes.Repeat([]byte("ABCDEFGHIJ"), 300) // 3000 bytes
	mutated := append([]byte(nil), base...)
	for i := 0; i < 50; i++ {
		mutated[i*10] = 'X'
	}

	baseDigest := hasher.Sum(base)
	mutatedDigest := hasher.Sum(mutated)

	if err := s.Put(context.Background(), baseDigest, base); err != nil {
		t.Fatalf("put base: %v", err)
	}
	if err := s.Put(context.Background(), mutatedDigest, mutated); err != nil {
		t.Fatalf("put mutated: %v", err)
	}

	got, err := s.Get(context.Background(), mutatedDigest)
	if err != nil {
		t.Fatalf("get mutated: %v", err)
	}
	if !bytes.Equal(got, mutated) {
		t.Fatalf("delta-encoded chunk failed to round-trip")
	}
}

func TestPutBatchAndGetBatch(t *testing.T) {
	s := newTestStore(t)
	chunks := map[hasher.Digest][]byte{}
	for _, str := range []string{"one", "two", "three"} {
		d := hasher.Sum([]byte(str))
		chunks[d] = []byte(str)
	}
	if err := s.PutBatch(context.Background(), chunks); err != nil {
		t.Fatalf("put batch: %v", err)
	}
	digests := make([]hasher.Digest, 0, len(chunks))
	for d := range chunks {
		digests = append(digests, d)
	}
	got, err := s.GetBatch(context.Background(), digests)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	for d, want := range chunks {
		if !bytes.Equal(got[d], want) {
			t.Fatalf("batch round-trip mismatch for %s", d)
		}
	}
}

func TestGCRemovesUnreferencedChunks(t *testing.T) {
	s := newTestStore(t)
	keep := hasher.Sum([]byte("keep"))
	drop := hasher.Sum([]byte("drop"))
	if err := s.Put(context.Background(), keep, []byte("keep")); err != nil {
		t.Fatalf("put keep: %v", err)
	}
	if err := s.Put(context.Background(), drop, []byte("drop")); err != nil {
		t.Fatalf("put drop: %v", err)
	}
	removed, err := s.GC(map[hasher.Digest]struct{}{keep: {}})
	if err != nil {
		t.Fatalf("gc: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 chunk removed, got %d", removed)
	}
	if !s.Exists(keep) {
		t.Fatalf("expected kept chunk to still exist")
	}
	if s.Exists(drop) {
		t.Fatalf("expected dropped chunk to be gone")
	}
}

func TestCountAndStorageSize(t *testing.T) {
	s := newTestStore(t)
	for _, str := range []string{"a", "b", "c"} {
		d := hasher.Sum([]byte(str))
		if err := s.Put(context.Background(), d, []byte(str)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	count, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
	size, err := s.StorageSize()
	if err != nil {
		t.Fatalf("storage size: %v", err)
	}
	if size <= 0 {
		t.Fatalf("expected positive storage size")
	}
}
