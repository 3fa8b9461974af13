package repo

import (
	"context"
	"time"

	"blaze/internal/blazeerr"
	"blaze/internal/commit"
	"blaze/internal/hasher"
)

// ErrNothingToCommit is returned when staging is empty and allowEmpty is
// false.
var ErrNothingToCommit = blazeerr.New(blazeerr.Repository, "nothing to commit")

// Commit seals the currently staged files into a new commit and repoints
// HEAD at it, per spec §4.5. If all is set, every non-ignored working-tree
// file whose disk state differs from staging is added first; this includes
// files that are not staged yet, not only modified tracked ones. If verbose
// is set, each committed path is logged. Staging is left intact afterward (open
// question 2, see DESIGN.md): a subsequent commit with no further adds
// simply recommits the same tree.
func (r *Repository) Commit(ctx context.Context, message string, all, verbose, allowEmpty bool) (hasher.Digest, error) {
	var digest hasher.Digest
	err := r.withLock("commit", func() error {
		if all {
			if _, err := r.addLocked(ctx, nil, verbose, false, false); err != nil {
				return err
			}
		}

		staged, err := r.meta.GetStaging(ctx)
		if err != nil {
			return err
		}
		if len(staged) == 0 && !allowEmpty {
			return ErrNothingToCommit
		}

		parent, ok, err := r.meta.GetRef(ctx, headRef)
		if err != nil {
			return err
		}
		if !ok {
			parent = ""
		}

		c := commit.Seal(parent, message, time.Now().Unix(), staged)
		if err := r.meta.PutCommit(ctx, c); err != nil {
			return err
		}
		if verbose {
			for path := range c.Files {
				r.logger.Info("committed file", "path", path)
			}
		}
		digest = c.Digest
		return nil
	})
	return digest, err
}
