// Package commit defines the immutable commit record and its canonical
// digest computation (spec §3, §4.7).
package commit

import (
	"strconv"
	"strings"

	"blaze/internal/hasher"
	"blaze/internal/manifest"
)

// Commit is the tuple (digest, parent_digest?, message, timestamp_seconds,
// tree_digest, files) described by spec §3. Digest is computed by Seal and
// is not valid until then.
type Commit struct {
	Digest      hasher.Digest
	Parent      hasher.Digest // empty if this is the root commit
	Message     string
	Timestamp   int64 // unix seconds
	TreeDigest  hasher.Digest
	Files       manifest.Map
}

// Seal computes TreeDigest from Files and Digest from the canonical field
// encoding, returning a fully-populated Commit. message is trimmed per
// spec §4.7.
func Seal(parent hasher.Digest, message string, timestamp int64, files manifest.Map) Commit {
	message = strings.TrimSpace(message)
	tree := manifest.TreeDigest(files)
	c := Commit{
		Parent:     parent,
		Message:    message,
		Timestamp:  timestamp,
		TreeDigest: tree,
		Files:      files,
	}
	c.Digest = computeDigest(c)
	return c
}

// computeDigest feeds parent, message, timestamp, file count, and tree
// digest into the hasher in a fixed order with stable separators, per
// spec §4.7's canonical commit hashing.
func computeDigest(c Commit) hasher.Digest {
	h := hasher.New()
	h.Write([]byte("parent:"))
	h.Write([]byte(c.Parent))
	h.Write([]byte{'\n'})
	h.Write([]byte("message:"))
	h.Write([]byte(c.Message))
	h.Write([]byte{'\n'})
	h.Write([]byte("timestamp:"))
	h.Write([]byte(strconv.FormatInt(c.Timestamp, 10)))
	h.Write([]byte{'\n'})
	h.Write([]byte("files:"))
	h.Write([]byte(strconv.Itoa(len(c.Files))))
	h.Write([]byte{'\n'})
	h.Write([]byte("tree:"))
	h.Write([]byte(c.TreeDigest))
	h.Write([]byte{'\n'})
	return h.Sum()
}

// Verify recomputes the digest from c's canonical fields and reports
// whether it matches c.Digest, per spec §8 invariant 7.
func Verify(c Commit) bool {
	return computeDigest(c) == c.Digest
}
