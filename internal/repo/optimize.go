package repo

import (
	"context"
	"fmt"
)

// Optimize runs housekeeping over the repository, per spec §4.5. gc
// computes the active chunk-digest set (union of staging and every
// commit's manifest) and removes unreferenced chunks; repack is a
// documented no-op (the spec leaves it as a placeholder implementations
// may skip). dryRun reports what gc would do without removing anything.
// Unless dryRun is set, the metadata store is compacted last, whether or
// not gc or repack is set. Returns a textual summary.
func (r *Repository) Optimize(ctx context.Context, gc, repack, dryRun bool) (string, error) {
	var summary string
	err := r.withLock("optimize", func() error {
		var removed int
		if gc {
			active, err := r.meta.AllReferencedChunks(ctx)
			if err != nil {
				return err
			}
			if dryRun {
				removed, err = r.chunks.CountUnreferenced(active)
			} else {
				removed, err = r.chunks.GC(active)
			}
			if err != nil {
				return err
			}
		}

		if !dryRun {
			if err := r.meta.Compact(ctx); err != nil {
				return err
			}
		}

		verb := "removed"
		if dryRun {
			verb = "would remove"
		}
		switch {
		case gc && repack:
			summary = fmt.Sprintf("gc %s %d unreferenced chunks; repack is a no-op", verb, removed)
		case gc:
			summary = fmt.Sprintf("gc %s %d unreferenced chunks", verb, removed)
		default:
			summary = "optimize: nothing to do"
		}
		return nil
	})
	return summary, err
}
