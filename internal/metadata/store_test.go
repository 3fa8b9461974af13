package metadata

import (
	"context"
	"path/filepath"
	"testing"

	"blaze/internal/commit"
	"blaze/internal/hasher"
	"blaze/internal/manifest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "metadata.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStagingRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	files := manifest.Map{
		"a.txt": {Path: "a.txt", Chunks: []hasher.Digest{hasher.Sum([]byte("a"))}, Size: 1, ModTime: 100, Permissions: 0o644},
	}
	if err := s.PutStaging(ctx, files); err != nil {
		t.Fatalf("put staging: %v", err)
	}
	got, err := s.GetStaging(ctx)
	if err != nil {
		t.Fatalf("get staging: %v", err)
	}
	if len(got) != 1 || got["a.txt"].Size != 1 {
		t.Fatalf("expected one staged file, got %v", got)
	}
}

func TestClearStaging(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	files := manifest.Map{"a.txt": {Path: "a.txt", Size: 1}}
	if err := s.PutStaging(ctx, files); err != nil {
		t.Fatalf("put staging: %v", err)
	}
	if err := s.ClearStaging(ctx); err != nil {
		t.Fatalf("clear staging: %v", err)
	}
	got, err := s.GetStaging(ctx)
	if err != nil {
		t.Fatalf("get staging: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty staging after clear, got %v", got)
	}
}

func TestPutCommitUpdatesHEAD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	files := manifest.Map{"a.txt": {Path: "a.txt", Size: 1}}
	c := commit.Seal("", "initial", 1700000000, files)
	if err := s.PutCommit(ctx, c); err != nil {
		t.Fatalf("put commit: %v", err)
	}
	head, ok, err := s.GetRef(ctx, "HEAD")
	if err != nil {
		t.Fatalf("get ref: %v", err)
	}
	if !ok || head != c.Digest {
		t.Fatalf("expected HEAD to point at %s, got %s (ok=%v)", c.Digest, head, ok)
	}
}

func TestGetCommitByPrefix(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	files := manifest.Map{"a.txt": {Path: "a.txt", Size: 1}}
	c := commit.Seal("", "initial", 1700000000, files)
	if err := s.PutCommit(ctx, c); err != nil {
		t.Fatalf("put commit: %v", err)
	}
	got, ok, err := s.GetCommit(ctx, string(c.Digest)[:8])
	if err != nil {
		t.Fatalf("get commit: %v", err)
	}
	if !ok || got.Digest != c.Digest {
		t.Fatalf("expected to resolve commit by prefix")
	}
}

func TestListCommitsOrderedDescending(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	files := manifest.Map{"a.txt": {Path: "a.txt", Size: 1}}
	root := commit.Seal("", "first", 1000, files)
	if err := s.PutCommit(ctx, root); err != nil {
		t.Fatalf("put root: %v", err)
	}
	child := commit.Seal(root.Digest, "second", 2000, files)
	if err := s.PutCommit(ctx, child); err != nil {
		t.Fatalf("put child: %v", err)
	}
	commits, err := s.ListCommits(ctx, 0, "")
	if err != nil {
		t.Fatalf("list commits: %v", err)
	}
	if len(commits) != 2 || commits[0].Digest != child.Digest {
		t.Fatalf("expected newest commit first, got %v", commits)
	}
}

func TestRefCreateDeleteList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.PutRef(ctx, "HEAD", ""); err != nil {
		t.Fatalf("put HEAD: %v", err)
	}
	if err := s.PutRef(ctx, "feature", "deadbeef"); err != nil {
		t.Fatalf("put feature: %v", err)
	}
	if err := s.DeleteRef(ctx, "HEAD"); err == nil {
		t.Fatalf("expected error deleting HEAD")
	}
	if err := s.DeleteRef(ctx, "feature"); err != nil {
		t.Fatalf("delete feature: %v", err)
	}
	refs, err := s.ListRefs(ctx)
	if err != nil {
		t.Fatalf("list refs: %v", err)
	}
	if _, ok := refs["feature"]; ok {
		t.Fatalf("expected feature ref to be gone")
	}
}

func TestIntegrityCheckCleanStore(t *testing.T) {
	s := openTestStore(t)
	issues, err := s.IntegrityCheck(context.Background())
	if err != nil {
		t.Fatalf("integrity check: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues on a fresh store, got %v", issues)
	}
}

func TestAllReferencedChunksUnionsStagingAndCommits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	stagedDigest := hasher.Sum([]byte("staged"))
	if err := s.PutStaging(ctx, manifest.Map{"s.txt": {Path: "s.txt", Chunks: []hasher.Digest{stagedDigest}}}); err != nil {
		t.Fatalf("put staging: %v", err)
	}
	committedDigest := hasher.Sum([]byte("committed"))
	files := manifest.Map{"c.txt": {Path: "c.txt", Chunks: []hasher.Digest{committedDigest}}}
	c := commit.Seal("", "msg", 100, files)
	if err := s.PutCommit(ctx, c); err != nil {
		t.Fatalf("put commit: %v", err)
	}

	active, err := s.AllReferencedChunks(ctx)
	if err != nil {
		t.Fatalf("all referenced chunks: %v", err)
	}
	if _, ok := active[stagedDigest]; !ok {
		t.Fatalf("expected staged digest in active set")
	}
	if _, ok := active[committedDigest]; !ok {
		t.Fatalf("expected committed digest in active set")
	}
}
