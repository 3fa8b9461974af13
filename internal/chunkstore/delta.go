package chunkstore

import (
	"bytes"
	"encoding/binary"

	"blaze/internal/blazeerr"
	"blaze/internal/hasher"
)

// deltaMinSize: delta encoding is only attempted for inputs larger than
// this (spec §9, grounded on original_source/src/chunks.rs: "Only use
// delta for chunks > 1KB").
const deltaMinSize = 1024

// deltaAcceptNum/deltaAcceptDen: a delta is only used if delta size < 80%
// of raw size.
const deltaAcceptNum, deltaAcceptDen = 8, 10

// maxDeltaChainDepth bounds how many delta hops must be walked to
// reconstruct a chunk, so Get never recurses unboundedly (spec §9).
const maxDeltaChainDepth = 4

// encodeDeltaRecord builds the on-disk delta record: tag(3) + UTF-8 base
// digest + NUL separator + compressed delta payload.
func encodeDeltaRecord(base hasher.Digest, compressedDelta []byte) []byte {
	out := make([]byte, 0, 1+len(base)+1+len(compressedDelta))
	out = append(out, byte(TagDelta))
	out = append(out, []byte(base)...)
	out = append(out, 0)
	out = append(out, compressedDelta...)
	return out
}

// decodeDeltaRecord splits a delta record's payload (post tag byte) into
// the base digest and the still-compressed delta bytes.
func decodeDeltaRecord(payload []byte) (hasher.Digest, []byte, error) {
	sep := bytes.IndexByte(payload, 0)
	if sep < 0 || sep == len(payload)-1 {
		return "", nil, blazeerr.New(blazeerr.Chunk, "malformed delta record")
	}
	return hasher.Digest(payload[:sep]), payload[sep+1:], nil
}

// createDelta encodes new relative to base using a same/diff run-length
// scheme: a leading 4-byte little-endian length of new, followed by
// alternating "same span" (tag 0 + uint16 count) and "diff span" (tag 1 +
// byte count + literal bytes, capped at 255 per span) commands. Grounded
// on original_source/src/chunks.rs's create_delta/apply_delta.
func createDelta(base, new []byte) []byte {
	var out bytes.Buffer
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(new)))
	out.Write(lenBuf[:])

	maxLen := len(base)
	if len(new) > maxLen {
		maxLen = len(new)
	}

	at := func(b []byte, i int) byte {
		if i < len(b) {
			return b[i]
		}
		return 0
	}

	i := 0
	for i < maxLen {
		if at(base, i) == at(new, i) {
			start := i
			count := 0
			for i < maxLen && count < 65535 && at(base, i) == at(new, i) {
				i++
				count++
			}
			out.WriteByte(0)
			var countBuf [2]byte
			binary.LittleEndian.PutUint16(countBuf[:], uint16(count))
			out.Write(countBuf[:])
			_ = start
		} else {
			start := i
			for i < maxLen && i-start < 255 && at(base, i) != at(new, i) {
				i++
			}
			out.WriteByte(1)
			out.WriteByte(byte(i - start))
			for j := start; j < i; j++ {
				out.WriteByte(at(new, j))
			}
		}
	}
	return out.Bytes()
}

// applyDelta reverses createDelta, reconstructing the original data
// relative to base.
func applyDelta(base, delta []byte) ([]byte, error) {
	if len(delta) < 4 {
		return nil, blazeerr.New(blazeerr.Chunk, "delta payload too small")
	}
	originalSize := int(binary.LittleEndian.Uint32(delta[:4]))
	result := make([]byte, 0, originalSize)
	pos := 4
	basePos := 0

	for pos < len(delta) && len(result) < originalSize {
		cmd := delta[pos]
		pos++
		switch cmd {
		case 0:
			if pos+2 > len(delta) {
				return nil, blazeerr.New(blazeerr.Chunk, "truncated delta same-span")
			}
			count := int(binary.LittleEndian.Uint16(delta[pos : pos+2]))
			pos += 2
			for k := 0; k < count && len(result) < originalSize; k++ {
				if basePos < len(base) {
					result = append(result, base[basePos])
				} else {
					result = append(result, 0)
				}
				basePos++
			}
		case 1:
			if pos >= len(delta) {
				return nil, blazeerr.New(blazeerr.Chunk, "truncated delta diff-span")
			}
			count := int(delta[pos])
			pos++
			for k := 0; k < count && len(result) < originalSize; k++ {
				if pos < len(delta) {
					result = append(result, delta[pos])
					pos++
				} else {
					result = append(result, 0)
				}
				basePos++
			}
		default:
			return nil, blazeerr.New(blazeerr.Chunk, "unknown delta command")
		}
	}
	for len(result) < originalSize {
		result = append(result, 0)
	}
	return result, nil
}

// deltaWorthwhile reports whether delta is small enough relative to raw to
// justify the extra reconstruction hop.
func deltaWorthwhile(delta, raw []byte) bool {
	return len(delta)*deltaAcceptDen < len(raw)*deltaAcceptNum
}
