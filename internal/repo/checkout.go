package repo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"blaze/internal/blazeerr"
	"blaze/internal/changeset"
	"blaze/internal/hasher"
)

// ErrCommitNotFound is returned when target does not resolve to a known
// commit digest (or prefix).
var ErrCommitNotFound = blazeerr.New(blazeerr.Repository, "commit not found")

// ErrWorkingTreeDirty is returned by Checkout when force is false and the
// working tree differs from staging.
var ErrWorkingTreeDirty = blazeerr.New(blazeerr.Repository, "working tree has uncommitted changes")

// Checkout resolves target as a (possibly partial) commit digest and
// restores every file it records into the working tree, then repoints
// HEAD. Per spec §4.5 (open question 1, see DESIGN.md), files present in
// the working tree but absent from the target commit are never removed.
func (r *Repository) Checkout(ctx context.Context, target string, force bool) (hasher.Digest, error) {
	c, found, err := r.meta.GetCommit(ctx, target)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrCommitNotFound
	}

	if !force {
		staged, err := r.meta.GetStaging(ctx)
		if err != nil {
			return "", err
		}
		working, err := r.scanWorkingTree(ctx)
		if err != nil {
			return "", err
		}
		if !changeset.IsClean(staged, working) {
			return "", ErrWorkingTreeDirty
		}
	}

	var digest hasher.Digest
	err = r.withLock("checkout", func() error {
		for path, mf := range c.Files {
			if err := r.restoreFile(ctx, path, mf.Chunks, mf.Permissions, mf.ModTime); err != nil {
				return err
			}
		}
		if err := r.meta.PutRef(ctx, headRef, c.Digest); err != nil {
			return err
		}
		digest = c.Digest
		return nil
	})
	return digest, err
}

func (r *Repository) restoreFile(ctx context.Context, relPath string, digests []hasher.Digest, perm uint32, modTime int64) error {
	absPath := filepath.Join(r.root, relPath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return blazeerr.Wrap(blazeerr.Filesystem, "create parent directories", err)
	}

	chunks, err := r.chunks.GetBatch(ctx, digests)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(absPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(perm))
	if err != nil {
		return blazeerr.Wrap(blazeerr.IO, "create checked-out file", err)
	}
	for _, d := range digests {
		if _, err := f.Write(chunks[d]); err != nil {
			f.Close()
			return blazeerr.Wrap(blazeerr.IO, "write checked-out file", err)
		}
	}
	if err := f.Close(); err != nil {
		return blazeerr.Wrap(blazeerr.IO, "close checked-out file", err)
	}

	if err := os.Chmod(absPath, os.FileMode(perm)); err != nil {
		return blazeerr.Wrap(blazeerr.Filesystem, "restore permissions", err)
	}
	if modTime != 0 {
		t := time.Unix(modTime, 0)
		if err := os.Chtimes(absPath, t, t); err != nil {
			return blazeerr.Wrap(blazeerr.Filesystem, "restore mtime", err)
		}
	}
	return nil
}
