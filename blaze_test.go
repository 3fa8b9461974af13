package blaze

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFacadeLifecycle(t *testing.T) {
	root := t.TempDir()
	r, already, err := Init(root, InitOptions{}, Options{})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if already {
		t.Fatalf("expected fresh repository")
	}
	defer r.Close()

	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx := context.Background()
	if n, err := r.Add(ctx, []string{"a.txt"}, false, false, false); err != nil || n != 1 {
		t.Fatalf("add: n=%d err=%v", n, err)
	}

	digest, err := r.Commit(ctx, "first commit", false, false, false)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if digest == "" {
		t.Fatalf("expected non-empty commit digest")
	}

	commits, err := r.Log(ctx, 0, "")
	if err != nil || len(commits) != 1 {
		t.Fatalf("log: commits=%d err=%v", len(commits), err)
	}

	stats, err := r.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.CommitCount != 1 {
		t.Fatalf("expected 1 commit in stats, got %d", stats.CommitCount)
	}
}

func TestFacadeOpenRejectsNonRepository(t *testing.T) {
	root := t.TempDir()
	if _, err := Open(root, Options{}); err != ErrNotARepository {
		t.Fatalf("expected ErrNotARepository, got %v", err)
	}
}
