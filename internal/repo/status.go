package repo

import (
	"context"

	"blaze/internal/changeset"
	"blaze/internal/manifest"
)

// StatusResult reports the two change sets spec §4.5 requires: Staged is
// HEAD vs staging, Working is staging vs the current on-disk scan. A clean
// repository has both empty.
type StatusResult struct {
	Staged  []changeset.Change
	Working []changeset.Change
}

// Status is read-only and does not take the repository lock, per spec
// §4.8.
func (r *Repository) Status(ctx context.Context) (StatusResult, error) {
	staged, err := r.meta.GetStaging(ctx)
	if err != nil {
		return StatusResult{}, err
	}

	var headFiles manifest.Map
	if headDigest, ok, err := r.meta.GetRef(ctx, headRef); err != nil {
		return StatusResult{}, err
	} else if ok && headDigest != "" {
		headCommit, found, err := r.meta.GetCommit(ctx, string(headDigest))
		if err != nil {
			return StatusResult{}, err
		}
		if found {
			headFiles = headCommit.Files
		}
	}

	working, err := r.scanWorkingTree(ctx)
	if err != nil {
		return StatusResult{}, err
	}

	return StatusResult{
		Staged:  changeset.Diff(headFiles, staged),
		Working: changeset.Diff(staged, working),
	}, nil
}

// scanWorkingTree rebuilds a manifest.Map for every non-ignored file
// currently on disk, for diffing against staging.
func (r *Repository) scanWorkingTree(ctx context.Context) (manifest.Map, error) {
	paths, err := r.walkNonIgnored()
	if err != nil {
		return nil, err
	}
	out := make(manifest.Map, len(paths))
	for _, p := range paths {
		mf, _, err := r.buildManifestFile(ctx, p)
		if err != nil {
			return nil, err
		}
		out[p] = mf
	}
	return out, nil
}
