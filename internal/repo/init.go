package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"blaze/internal/blazeerr"
	"blaze/internal/chunker"
	"blaze/internal/config"
	"blaze/internal/hasher"
	"blaze/internal/ignore"
	"blaze/internal/metadata"
)

// InitOptions configures Init. ChunkSize of 0 selects chunker.DefaultChunkSize.
type InitOptions struct {
	NoIgnore  bool
	ChunkSize int
}

// Init creates a new repository rooted at root, or opens the existing one
// idempotently if root is already initialized (spec §4.5: "if already
// initialized, reports and returns"). AlreadyInitialized reports which case
// occurred.
func Init(root string, initOpts InitOptions, opts Options) (r *Repository, alreadyInitialized bool, err error) {
	prefix := opts.prefixOrDefault()
	if isInitialized(root, prefix) {
		r, err = open(root, prefix, opts)
		return r, true, err
	}

	dot := filepath.Join(root, "."+prefix)
	if err := os.MkdirAll(dot, 0o755); err != nil {
		return nil, false, blazeerr.Wrap(blazeerr.Filesystem, "create repository directory", err)
	}
	chunksDir := filepath.Join(dot, "chunks")
	if err := os.MkdirAll(chunksDir, 0o755); err != nil {
		return nil, false, blazeerr.Wrap(blazeerr.Filesystem, "create chunks directory", err)
	}

	meta, err := metadata.Open(filepath.Join(dot, "metadata.db"))
	if err != nil {
		return nil, false, err
	}
	if err := meta.PutRef(context.Background(), headRef, hasher.Digest("")); err != nil {
		meta.Close()
		return nil, false, err
	}
	meta.Close()

	chunkSize := initOpts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	cfg := config.Config{ChunkSize: chunkSize}
	if err := config.Save(filepath.Join(dot, "config"), cfg); err != nil {
		return nil, false, err
	}

	if !initOpts.NoIgnore {
		ignorePath := filepath.Join(root, "."+prefix+"ignore")
		content := strings.Join(ignore.DefaultPatterns, "\n") + "\n"
		if err := os.WriteFile(ignorePath, []byte(content), 0o644); err != nil {
			return nil, false, blazeerr.Wrap(blazeerr.IO, "write default ignore file", err)
		}
	}

	r, err = open(root, prefix, opts)
	return r, false, err
}
