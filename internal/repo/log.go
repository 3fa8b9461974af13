package repo

import (
	"context"

	"blaze/internal/commit"
)

// Log returns commits ordered most-recent-first, per spec §4.5. limit <= 0
// means unbounded; since, if non-empty, is a (possibly partial) commit
// digest, and only commits whose timestamp is at or after that commit's
// are returned. Presentation (oneline, stat) is the caller's concern.
func (r *Repository) Log(ctx context.Context, limit int, since string) ([]commit.Commit, error) {
	return r.meta.ListCommits(ctx, limit, since)
}
