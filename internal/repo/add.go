package repo

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blaze/internal/hasher"
	"blaze/internal/manifest"
)

// Add resolves paths to a set of working-tree files, chunks and stores
// them, and upserts their manifests into staging, per spec §4.5.
//
//   - all: enumerate every non-ignored file under the repository root.
//   - len(paths) == 0: enumerate files whose current disk state differs
//     from what's already staged.
//   - otherwise: resolve each argument as an exact file, a directory (walked
//     recursively), or a substring match against every non-ignored
//     working-tree path.
//
// dryRun reports the count that would be staged without writing anything.
// Returns the number of files staged.
func (r *Repository) Add(ctx context.Context, paths []string, verbose, all, dryRun bool) (int, error) {
	var count int
	err := r.withLock("add", func() error {
		n, err := r.addLocked(ctx, paths, verbose, all, dryRun)
		count = n
		return err
	})
	return count, err
}

// addLocked implements Add's body assuming the repository lock is already
// held by the caller. Commit's --all path calls this directly to re-stage
// modified files without trying to reacquire the (non-reentrant) lock.
func (r *Repository) addLocked(ctx context.Context, paths []string, verbose, all, dryRun bool) (int, error) {
	files, err := r.resolveAddTargets(ctx, paths, all)
	if err != nil {
		return 0, err
	}
	if dryRun || len(files) == 0 {
		return len(files), nil
	}

	staged := make(manifest.Map, len(files))
	allChunkSizes := make(map[hasher.Digest]int64)
	for _, relPath := range files {
		mf, chunks, err := r.buildManifestFile(ctx, relPath)
		if err != nil {
			return 0, err
		}
		batch := make(map[hasher.Digest][]byte, len(chunks))
		for _, c := range chunks {
			batch[c.Digest] = c.Data
			allChunkSizes[c.Digest] = int64(len(c.Data))
		}
		if err := r.chunks.PutBatch(ctx, batch); err != nil {
			return 0, err
		}
		staged[relPath] = mf
		if verbose {
			r.logger.Info("staged file", "path", relPath, "size", mf.Size)
		}
	}

	if err := r.meta.PutChunkRecords(ctx, allChunkSizes, time.Now().Unix()); err != nil {
		return 0, err
	}
	if err := r.meta.PutStaging(ctx, staged); err != nil {
		return 0, err
	}
	return len(files), nil
}

// buildManifestFile chunks the working-tree file at relPath and returns its
// manifest entry alongside the chunk payloads, ready for PutBatch.
func (r *Repository) buildManifestFile(ctx context.Context, relPath string) (manifest.File, []chunkWithData, error) {
	absPath := filepath.Join(r.root, relPath)
	info, err := os.Stat(absPath)
	if err != nil {
		return manifest.File{}, nil, err
	}
	chunks, err := r.chunker().ChunkFile(ctx, absPath)
	if err != nil {
		return manifest.File{}, nil, err
	}
	digests := make([]hasher.Digest, len(chunks))
	out := make([]chunkWithData, len(chunks))
	for i, c := range chunks {
		digests[i] = c.Digest
		out[i] = chunkWithData{Digest: c.Digest, Data: c.Data}
	}
	mf := manifest.File{
		Path:         relPath,
		Chunks:       digests,
		Size:         info.Size(),
		ModTime:      info.ModTime().Unix(),
		Permissions:  uint32(info.Mode().Perm()),
		IsExecutable: info.Mode().Perm()&0o111 != 0,
	}
	return mf, out, nil
}

type chunkWithData struct {
	Digest hasher.Digest
	Data   []byte
}

// resolveAddTargets computes the repository-relative paths Add should
// process.
func (r *Repository) resolveAddTargets(ctx context.Context, paths []string, all bool) ([]string, error) {
	if all {
		return r.walkNonIgnored()
	}
	if len(paths) == 0 {
		return r.filesDifferingFromStaging(ctx)
	}

	everything, err := r.walkNonIgnored()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var resolved []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			resolved = append(resolved, p)
		}
	}

	for _, arg := range paths {
		clean := filepath.ToSlash(strings.TrimPrefix(arg, "./"))
		absArg := filepath.Join(r.root, clean)

		if info, err := os.Stat(absArg); err == nil {
			if !info.IsDir() {
				add(clean)
				continue
			}
			for _, p := range everything {
				if p == clean || strings.HasPrefix(p, clean+"/") {
					add(p)
				}
			}
			continue
		}
		for _, p := range everything {
			if strings.Contains(p, clean) {
				add(p)
			}
		}
	}
	return resolved, nil
}

// filesDifferingFromStaging enumerates non-ignored working-tree files whose
// recomputed manifest differs from (or is absent from) the staged manifest.
func (r *Repository) filesDifferingFromStaging(ctx context.Context) ([]string, error) {
	staged, err := r.meta.GetStaging(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := r.walkNonIgnored()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range candidates {
		mf, _, err := r.buildManifestFile(ctx, p)
		if err != nil {
			return nil, err
		}
		if existing, ok := staged[p]; !ok || !existing.Equal(mf) {
			out = append(out, p)
		}
	}
	return out, nil
}

// walkNonIgnored returns every repository-relative, forward-slash path
// under root that the ignore matcher does not exclude, always skipping the
// repository's own hidden directory and its ignore file.
func (r *Repository) walkNonIgnored() ([]string, error) {
	var out []string
	dot := r.dotDir()
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == r.root {
			return nil
		}
		if path == dot {
			return filepath.SkipDir
		}
		if path == r.ignorePath() {
			return nil
		}
		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if r.ignore.ShouldIgnore(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if r.ignore.ShouldIgnore(rel) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	return out, err
}
