// Package repo implements the Repository Core: the orchestrator that
// composes the chunker, chunk store, metadata store, lock manager, and
// ignore filter into the engine's ten public operations
// (init/add/commit/log/status/checkout/branch/verify/optimize/stats).
//
// Repository holds its collaborators as flat, first-class fields rather
// than through embedding or an interface hierarchy, the way the teacher's
// top-level Orchestrator holds a ConfigStore, chunk managers, and index
// managers side by side rather than behind one umbrella abstraction.
package repo

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"blaze/internal/blazeerr"
	"blaze/internal/chunker"
	"blaze/internal/chunkstore"
	"blaze/internal/config"
	"blaze/internal/ignore"
	"blaze/internal/lockmgr"
	"blaze/internal/logging"
	"blaze/internal/metadata"
	"blaze/internal/pool"

	"github.com/google/uuid"
)

// DefaultPrefix names the repository's hidden directory and ignore file
// (".blaze/", ".blazeignore") when the caller doesn't override it.
const DefaultPrefix = "blaze"

// headRef is the name of the ref that always exists after Init and tracks
// the current checked-out commit.
const headRef = "HEAD"

// ErrNotARepository is returned by any operation against a directory that
// has not been initialized.
var ErrNotARepository = blazeerr.New(blazeerr.Repository, "not a repository")

// Repository orchestrates the engine's public operations over a working
// directory rooted at Root.
type Repository struct {
	root   string
	prefix string

	chunks *chunkstore.Store
	meta   *metadata.Store
	pool   *pool.Pool
	cfg    config.Config
	ignore *ignore.Matcher
	logger *slog.Logger
}

// Options configures Open and Init. Zero values select sane defaults.
type Options struct {
	Prefix        string
	Logger        *slog.Logger
	PoolLimit     int
	MaxCacheBytes int
}

func (o Options) prefixOrDefault() string {
	if o.Prefix == "" {
		return DefaultPrefix
	}
	return o.Prefix
}

func (r *Repository) dotDir() string       { return filepath.Join(r.root, "."+r.prefix) }
func (r *Repository) metadataPath() string { return filepath.Join(r.dotDir(), "metadata.db") }
func (r *Repository) chunksDir() string    { return filepath.Join(r.dotDir(), "chunks") }
func (r *Repository) lockPath() string     { return filepath.Join(r.dotDir(), "repo.lock") }
func (r *Repository) configPath() string   { return filepath.Join(r.dotDir(), "config") }
func (r *Repository) ignorePath() string   { return filepath.Join(r.root, "."+r.prefix+"ignore") }

// Root returns the repository's working-tree root.
func (r *Repository) Root() string { return r.root }

// isInitialized reports whether root already contains a repository
// directory and metadata database, per spec §4.5's existence check.
func isInitialized(root, prefix string) bool {
	info, err := os.Stat(filepath.Join(root, "."+prefix, "metadata.db"))
	return err == nil && !info.IsDir()
}

// Open loads an existing repository rooted at root. It fails with
// ErrNotARepository if root has not been initialized.
func Open(root string, opts Options) (*Repository, error) {
	prefix := opts.prefixOrDefault()
	if !isInitialized(root, prefix) {
		return nil, ErrNotARepository
	}
	return open(root, prefix, opts)
}

func open(root, prefix string, opts Options) (*Repository, error) {
	r := &Repository{
		root:   root,
		prefix: prefix,
		pool:   pool.New(opts.PoolLimit),
		logger: logging.Default(opts.Logger).With("component", "repo"),
	}

	meta, err := metadata.Open(r.metadataPath())
	if err != nil {
		return nil, err
	}
	r.meta = meta

	chunks, err := chunkstore.New(r.chunksDir(), r.pool, opts.MaxCacheBytes)
	if err != nil {
		meta.Close()
		return nil, err
	}
	r.chunks = chunks

	cfg, err := config.Load(r.configPath())
	if err != nil {
		meta.Close()
		return nil, err
	}
	r.cfg = cfg

	if f, err := os.Open(r.ignorePath()); err == nil {
		parsed, perr := ignore.Parse(f)
		f.Close()
		if perr != nil {
			meta.Close()
			return nil, blazeerr.Wrap(blazeerr.Path, "parse ignore file", perr)
		}
		r.ignore = ignore.NewMatcher(parsed)
	} else {
		parsed, _ := ignore.Parse(strings.NewReader(strings.Join(ignore.DefaultPatterns, "\n")))
		r.ignore = ignore.NewMatcher(parsed)
	}

	return r, nil
}

func (r *Repository) chunker() *chunker.Chunker {
	return chunker.New(r.cfg.ChunkSize, r.pool)
}

// Close releases the repository's open resources (metadata connection).
// It does not release the lock; callers hold a *lockmgr.Lock only for the
// duration of a single mutating operation via withLock.
func (r *Repository) Close() error {
	return r.meta.Close()
}

// withLock acquires the repository's exclusive advisory lock for the
// duration of fn, per spec §4.8: mutating operations never queue on a
// failed acquisition. op names the operation for log correlation; each
// invocation gets its own opID so concurrent CLI/library callers can be
// told apart in the log stream.
func (r *Repository) withLock(op string, fn func() error) error {
	opID := uuid.Must(uuid.NewV7()).String()
	log := r.logger.With("op", op, "op_id", opID)

	l, err := lockmgr.Acquire(r.lockPath())
	if err != nil {
		log.Error("lock acquisition failed", "error", err)
		return err
	}
	defer l.Release()

	log.Debug("operation start")
	err = fn()
	if err != nil {
		log.Error("operation failed", "error", err)
		return err
	}
	log.Debug("operation complete")
	return nil
}

