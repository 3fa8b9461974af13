package chunkstore

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"blaze/internal/blazeerr"
)

// Compression tiers and acceptance ratios, exact values grounded on
// original_source/src/chunks.rs's compress_chunk_data.
const (
	zstdLevelLarge  = zstd.SpeedBestCompression // >1MB
	zstdLevelMedium = zstd.SpeedDefault         // >64KB
	zstdLevelSmall  = zstd.SpeedFastest         // otherwise

	largeChunkSize  = 1024 * 1024
	mediumChunkSize = 64 * 1024
)

var sharedZstdDecoder *zstd.Decoder

func init() {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("chunkstore: init zstd decoder: " + err.Error())
	}
	sharedZstdDecoder = dec
}

// compress picks a chunk record encoding for raw: zstd if its output is
// under 90% of raw, otherwise LZ4 if its output is under 95% of raw,
// otherwise raw. LZ4 is only tried when zstd was rejected. Chunks below
// smallChunkThreshold are always stored raw.
func compress(raw []byte) ([]byte, error) {
	if len(raw) < smallChunkThreshold {
		return encodeRecord(TagRaw, raw), nil
	}

	level := zstdLevelSmall
	switch {
	case len(raw) > largeChunkSize:
		level = zstdLevelLarge
	case len(raw) > mediumChunkSize:
		level = zstdLevelMedium
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, blazeerr.Wrap(blazeerr.Chunk, "create zstd encoder", err)
	}
	defer enc.Close()
	zstdOut := enc.EncodeAll(raw, nil)
	if len(zstdOut)*10 < len(raw)*9 {
		return encodeRecord(TagZstd, zstdOut), nil
	}

	var lz4Buf bytes.Buffer
	lz4w := lz4.NewWriter(&lz4Buf)
	if _, err := lz4w.Write(raw); err != nil {
		return nil, blazeerr.Wrap(blazeerr.Chunk, "lz4 compress", err)
	}
	if err := lz4w.Close(); err != nil {
		return nil, blazeerr.Wrap(blazeerr.Chunk, "lz4 compress", err)
	}
	if lz4Buf.Len()*100 < len(raw)*95 {
		return encodeRecord(TagLZ4, lz4Buf.Bytes()), nil
	}

	return encodeRecord(TagRaw, raw), nil
}

// decompress reverses compress, dispatching on the leading tag byte.
func decompress(record []byte) ([]byte, error) {
	tag, payload, err := decodeRecord(record)
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagRaw:
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	case TagLZ4:
		var buf bytes.Buffer
		r := lz4.NewReader(bytes.NewReader(payload))
		if _, err := io.Copy(&buf, r); err != nil {
			return nil, blazeerr.Wrap(blazeerr.Chunk, "lz4 decompress", err)
		}
		return buf.Bytes(), nil
	case TagZstd:
		out, err := sharedZstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, blazeerr.Wrap(blazeerr.Chunk, "zstd decompress", err)
		}
		return out, nil
	default:
		return nil, unknownTagErr(tag)
	}
}
