// Package hasher computes the content digests used throughout blaze:
// chunks, manifests, trees, and commits are all identified by the same
// 256-bit BLAKE3 digest rendered as 64 lowercase hex characters.
package hasher

import (
	"encoding/hex"
	"io"

	"lukechampine.com/blake3"
)

// Size is the digest length in raw bytes (256 bits).
const Size = 32

// Digest is a 64-character lowercase hex BLAKE3 digest.
type Digest string

// Empty is the zero-value digest; callers use it to mean "no digest".
const Empty Digest = ""

// Sum computes the digest of data in one shot.
func Sum(data []byte) Digest {
	sum := blake3.Sum256(data)
	return Digest(hex.EncodeToString(sum[:]))
}

// State is a streaming hash state, used for hashing large files chunk by
// chunk or for feeding the canonical tree/commit serializations
// incrementally instead of building one large byte slice first.
type State struct {
	h *blake3.Hasher
}

// New returns a fresh streaming hash state.
func New() *State {
	return &State{h: blake3.New(Size, nil)}
}

// Write implements io.Writer.
func (s *State) Write(p []byte) (int, error) {
	return s.h.Write(p)
}

var _ io.Writer = (*State)(nil)

// Sum returns the digest of everything written so far without resetting
// the state.
func (s *State) Sum() Digest {
	sum := s.h.Sum(nil)
	return Digest(hex.EncodeToString(sum))
}

// Valid reports whether d looks like a well-formed digest: 64 lowercase hex
// characters. It does not check that a chunk with this digest exists.
func Valid(d Digest) bool {
	if len(d) != Size*2 {
		return false
	}
	for i := 0; i < len(d); i++ {
		c := d[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// HasPrefix reports whether d begins with prefix, used for partial-digest
// resolution of commits.
func HasPrefix(d Digest, prefix string) bool {
	if len(prefix) > len(d) {
		return false
	}
	return string(d[:len(prefix)]) == prefix
}
