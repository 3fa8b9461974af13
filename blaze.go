// Package blaze is the public façade over the engine's internal packages,
// gluing the chunker, chunk store, metadata store, lock manager, and
// ignore filter into the nine repository operations
// (init/add/commit/log/status/checkout/branch/verify/optimize), the way
// the teacher project keeps its orchestration internal and exposes only a
// thin surface to its own command-line front end.
package blaze

import (
	"context"

	"blaze/internal/changeset"
	"blaze/internal/commit"
	"blaze/internal/hasher"
	"blaze/internal/repo"
)

// Re-exported value types, so callers never need to import the internal
// packages that define them.
type (
	Digest       = hasher.Digest
	Commit       = commit.Commit
	Change       = changeset.Change
	StatusResult = repo.StatusResult
	VerifyResult = repo.VerifyResult
	Stats        = repo.Stats
	Options      = repo.Options
	InitOptions  = repo.InitOptions
)

// Re-exported sentinel errors.
var (
	ErrNotARepository   = repo.ErrNotARepository
	ErrNothingToCommit  = repo.ErrNothingToCommit
	ErrCommitNotFound   = repo.ErrCommitNotFound
	ErrWorkingTreeDirty = repo.ErrWorkingTreeDirty
	ErrBranchExists     = repo.ErrBranchExists
	ErrBranchNotFound   = repo.ErrBranchNotFound
)

// DefaultPrefix names the repository's hidden directory (".blaze/") and
// ignore file (".blazeignore") when Options.Prefix is left empty.
const DefaultPrefix = repo.DefaultPrefix

// Repository is a handle onto one chunk-addressed repository rooted at a
// working directory.
type Repository struct {
	inner *repo.Repository
}

// Init creates a new repository, or idempotently opens the existing one if
// root is already initialized.
func Init(root string, initOpts InitOptions, opts Options) (r *Repository, alreadyInitialized bool, err error) {
	inner, already, err := repo.Init(root, initOpts, opts)
	if err != nil {
		return nil, already, err
	}
	return &Repository{inner: inner}, already, nil
}

// Open loads an existing repository. It returns ErrNotARepository if root
// has not been initialized.
func Open(root string, opts Options) (*Repository, error) {
	inner, err := repo.Open(root, opts)
	if err != nil {
		return nil, err
	}
	return &Repository{inner: inner}, nil
}

// Close releases the repository's open resources.
func (r *Repository) Close() error { return r.inner.Close() }

// Root returns the repository's working-tree root.
func (r *Repository) Root() string { return r.inner.Root() }

// Add resolves paths to working-tree files, chunks and stores them, and
// stages their manifests. See spec §4.5 for the paths/all/dry_run
// resolution rules.
func (r *Repository) Add(ctx context.Context, paths []string, verbose, all, dryRun bool) (int, error) {
	return r.inner.Add(ctx, paths, verbose, all, dryRun)
}

// Commit seals staged files into a new commit and repoints HEAD at it.
func (r *Repository) Commit(ctx context.Context, message string, all, verbose, allowEmpty bool) (Digest, error) {
	return r.inner.Commit(ctx, message, all, verbose, allowEmpty)
}

// Log returns commits ordered most-recent-first.
func (r *Repository) Log(ctx context.Context, limit int, since string) ([]Commit, error) {
	return r.inner.Log(ctx, limit, since)
}

// Status reports the staged (HEAD vs staging) and working (staging vs
// disk) change sets.
func (r *Repository) Status(ctx context.Context) (StatusResult, error) {
	return r.inner.Status(ctx)
}

// Checkout restores the working tree to the state recorded by the commit
// target resolves to, then repoints HEAD.
func (r *Repository) Checkout(ctx context.Context, target string, force bool) (Digest, error) {
	return r.inner.Checkout(ctx, target, force)
}

// BranchCreate points a new ref at HEAD's current commit.
func (r *Repository) BranchCreate(ctx context.Context, name string) error {
	return r.inner.BranchCreate(ctx, name)
}

// BranchDelete removes a ref. HEAD cannot be deleted.
func (r *Repository) BranchDelete(ctx context.Context, name string) error {
	return r.inner.BranchDelete(ctx, name)
}

// BranchList returns every ref (including HEAD) by name.
func (r *Repository) BranchList(ctx context.Context) (map[string]Digest, error) {
	return r.inner.BranchList(ctx)
}

// Verify checks metadata integrity and chunk referential integrity,
// optionally recomputing digests (chunks) and removing dangling
// chunk-record references (fix).
func (r *Repository) Verify(ctx context.Context, fix, chunks, verbose bool) (VerifyResult, error) {
	return r.inner.Verify(ctx, fix, chunks, verbose)
}

// Optimize runs garbage collection and metadata compaction.
func (r *Repository) Optimize(ctx context.Context, gc, repack, dryRun bool) (string, error) {
	return r.inner.Optimize(ctx, gc, repack, dryRun)
}

// Stats reports chunk, storage, commit, and staging counters.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	return r.inner.Stats(ctx)
}
