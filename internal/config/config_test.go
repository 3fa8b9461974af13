package config

import (
	"os"
	"path/filepath"
	"testing"

	"blaze/internal/chunker"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChunkSize != chunker.DefaultChunkSize {
		t.Fatalf("expected default chunk size, got %d", cfg.ChunkSize)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	want := Config{ChunkSize: 131072}
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestLoadIgnoresOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	content := "[remote]\nurl = https://example.com\n[core]\nchunk_size = 4096\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChunkSize != 4096 {
		t.Fatalf("expected chunk_size 4096, got %d", cfg.ChunkSize)
	}
}
