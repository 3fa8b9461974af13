package chunkstore

import (
	"bytes"
	"testing"
)

func TestCompressDecompressSmallChunkStaysRaw(t *testing.T) {
	data := []byte("tiny")
	record, err := compress(data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if Tag(record[0]) != TagRaw {
		t.Fatalf("expected small chunk to be stored raw, got tag %d", record[0])
	}
	got, err := decompress(record)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestCompressDecompressCompressibleChunk(t *testing.T) {
	data := bytes.Repeat([]byte("compressible-data-"), 2000)
	record, err := compress(data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if Tag(record[0]) == TagRaw {
		t.Fatalf("expected highly compressible data to not be stored raw")
	}
	got, err := decompress(record)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestCompressDecompressIncompressibleChunk(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 2707 % 251)
	}
	record, err := compress(data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	got, err := decompress(record)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestDecompressUnknownTag(t *testing.T) {
	_, err := decompress([]byte{99, 1, 2, 3})
	if err == nil {
		t.Fatalf("expected error for unknown tag")
	}
}
