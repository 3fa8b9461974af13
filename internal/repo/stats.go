package repo

import "context"

// Stats reports repository-wide counters for the `stats` CLI verb (spec
// §6's CLI contract table, filled via SPEC_FULL's §9 supplement grounded
// on original_source/src/cli.rs's Stats command and
// Database::chunk_stats/commit_count queries). Read-only; does not take
// the repository lock.
type Stats struct {
	ChunkCount   int
	StorageBytes int64
	CommitCount  int
	StagedFiles  int
}

// Stats computes Stats from the chunk store and metadata store.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	chunkCount, err := r.chunks.Count()
	if err != nil {
		return Stats{}, err
	}
	storageBytes, err := r.chunks.StorageSize()
	if err != nil {
		return Stats{}, err
	}
	commitCount, err := r.meta.CommitCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	stagedFiles, err := r.meta.StagedFileCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		ChunkCount:   chunkCount,
		StorageBytes: storageBytes,
		CommitCount:  commitCount,
		StagedFiles:  stagedFiles,
	}, nil
}
