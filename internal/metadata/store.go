// Package metadata is the transactional relational store for chunks,
// staged files, commits, and refs (spec §4.4). Grounded on the teacher's
// internal/config/sqlite.Store (modernc.org/sqlite, WAL, single-connection
// pool, embedded migrations) and on ferg-cod3s-conexus's
// internal/vectorstore/sqlite JSON-column / upsert idiom.
package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"blaze/internal/blazeerr"
	"blaze/internal/commit"
	"blaze/internal/hasher"
	"blaze/internal/manifest"
)

// busyTimeout satisfies spec §4.4's "busy-wait timeout >= 30s" tuning
// requirement.
const busyTimeout = 30000 * time.Millisecond

// Store is the SQLite-backed metadata store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the metadata database at path and
// brings its schema up to date.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, blazeerr.Wrap(blazeerr.Filesystem, "create metadata directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, blazeerr.Wrap(blazeerr.Database, "open sqlite", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, blazeerr.Wrap(blazeerr.Database, "set pragma: "+p, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// PutChunkRecords records the presence of newly-written chunks inside the
// given transaction-scoped call; size is the decompressed chunk size.
func (s *Store) PutChunkRecords(ctx context.Context, sizes map[hasher.Digest]int64, createdAt int64) error {
	if len(sizes) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (digest, size, created_at) VALUES (?, ?, ?)
			ON CONFLICT(digest) DO NOTHING
		`)
		if err != nil {
			return blazeerr.Wrap(blazeerr.Database, "prepare chunk insert", err)
		}
		defer stmt.Close()
		for d, size := range sizes {
			if _, err := stmt.ExecContext(ctx, string(d), size, createdAt); err != nil {
				return blazeerr.Wrap(blazeerr.Database, "insert chunk record", err)
			}
		}
		return nil
	})
}

// PutStaging upserts file manifests into the staging table in one
// transaction, all-or-nothing per spec §7's policy.
func (s *Store) PutStaging(ctx context.Context, files manifest.Map) error {
	if len(files) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO staging (path, chunks_json, size, mtime, permissions, is_executable)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				chunks_json = excluded.chunks_json,
				size = excluded.size,
				mtime = excluded.mtime,
				permissions = excluded.permissions,
				is_executable = excluded.is_executable
		`)
		if err != nil {
			return blazeerr.Wrap(blazeerr.Database, "prepare staging upsert", err)
		}
		defer stmt.Close()
		for path, f := range files {
			chunksJSON, err := json.Marshal(f.Chunks)
			if err != nil {
				return blazeerr.Wrap(blazeerr.Serialization, "marshal chunk list", err)
			}
			exec := 0
			if f.IsExecutable {
				exec = 1
			}
			if _, err := stmt.ExecContext(ctx, path, string(chunksJSON), f.Size, f.ModTime, f.Permissions, exec); err != nil {
				return blazeerr.Wrap(blazeerr.Database, "upsert staging entry", err)
			}
		}
		return nil
	})
}

// GetStaging returns the full staging map.
func (s *Store) GetStaging(ctx context.Context) (manifest.Map, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, chunks_json, size, mtime, permissions, is_executable FROM staging`)
	if err != nil {
		return nil, blazeerr.Wrap(blazeerr.Database, "query staging", err)
	}
	defer rows.Close()

	out := manifest.Map{}
	for rows.Next() {
		var path, chunksJSON string
		var f manifest.File
		var exec int
		if err := rows.Scan(&path, &chunksJSON, &f.Size, &f.ModTime, &f.Permissions, &exec); err != nil {
			return nil, blazeerr.Wrap(blazeerr.Database, "scan staging row", err)
		}
		var chunks []hasher.Digest
		if err := json.Unmarshal([]byte(chunksJSON), &chunks); err != nil {
			return nil, blazeerr.Wrap(blazeerr.Serialization, "unmarshal chunks_json", err)
		}
		f.Path = path
		f.Chunks = chunks
		f.IsExecutable = exec != 0
		out[path] = f
	}
	if err := rows.Err(); err != nil {
		return nil, blazeerr.Wrap(blazeerr.Database, "iterate staging rows", err)
	}
	return out, nil
}

// ClearStaging empties the staging table. repo.Commit does not call it:
// staging persists across commits (see DESIGN.md's open-question-2 note).
func (s *Store) ClearStaging(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM staging`)
		if err != nil {
			return blazeerr.Wrap(blazeerr.Database, "clear staging", err)
		}
		return nil
	})
}

// PutCommit writes a commit row and rewrites HEAD in one transaction, per
// spec §4.5's commit contract.
func (s *Store) PutCommit(ctx context.Context, c commit.Commit) error {
	filesJSON, err := json.Marshal(c.Files)
	if err != nil {
		return blazeerr.Wrap(blazeerr.Serialization, "marshal files map", err)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var parent sql.NullString
		if c.Parent != "" {
			parent = sql.NullString{String: string(c.Parent), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO commits (digest, parent, message, timestamp, tree_digest, files_json)
			VALUES (?, ?, ?, ?, ?, ?)
		`, string(c.Digest), parent, c.Message, c.Timestamp, string(c.TreeDigest), string(filesJSON)); err != nil {
			return blazeerr.Wrap(blazeerr.Database, "insert commit", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO refs (name, commit_digest) VALUES ('HEAD', ?)
			ON CONFLICT(name) DO UPDATE SET commit_digest = excluded.commit_digest
		`, string(c.Digest)); err != nil {
			return blazeerr.Wrap(blazeerr.Database, "update HEAD", err)
		}
		return nil
	})
}

// GetCommit resolves a (possibly partial) digest prefix to the most recent
// matching commit, per spec §4.4's get_commit contract and open question 4.
func (s *Store) GetCommit(ctx context.Context, prefix string) (commit.Commit, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT digest, parent, message, timestamp, tree_digest, files_json
		FROM commits WHERE digest LIKE ? || '%'
		ORDER BY timestamp DESC, rowid DESC LIMIT 1
	`, prefix)
	return s.scanCommit(row)
}

func (s *Store) scanCommit(row *sql.Row) (commit.Commit, bool, error) {
	var digest, message, treeDigest, filesJSON string
	var parent sql.NullString
	var timestamp int64
	if err := row.Scan(&digest, &parent, &message, &timestamp, &treeDigest, &filesJSON); err != nil {
		if err == sql.ErrNoRows {
			return commit.Commit{}, false, nil
		}
		return commit.Commit{}, false, blazeerr.Wrap(blazeerr.Database, "scan commit", err)
	}
	var files manifest.Map
	if err := json.Unmarshal([]byte(filesJSON), &files); err != nil {
		return commit.Commit{}, false, blazeerr.Wrap(blazeerr.Serialization, "unmarshal files_json", err)
	}
	c := commit.Commit{
		Digest:     hasher.Digest(digest),
		Message:    message,
		Timestamp:  timestamp,
		TreeDigest: hasher.Digest(treeDigest),
		Files:      files,
	}
	if parent.Valid {
		c.Parent = hasher.Digest(parent.String)
	}
	return c, true, nil
}

// ListCommits returns commits ordered by timestamp descending, at most
// limit entries (0 means unlimited), optionally filtered to those with
// timestamp >= the commit referenced by since (a possibly-partial digest).
func (s *Store) ListCommits(ctx context.Context, limit int, since string) ([]commit.Commit, error) {
	query := `SELECT digest, parent, message, timestamp, tree_digest, files_json FROM commits`
	args := []any{}

	if since != "" {
		sinceCommit, ok, err := s.GetCommit(ctx, since)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, blazeerr.New(blazeerr.Repository, fmt.Sprintf("commit not found for prefix %q", since))
		}
		query += ` WHERE timestamp >= ?`
		args = append(args, sinceCommit.Timestamp)
	}
	query += ` ORDER BY timestamp DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, blazeerr.Wrap(blazeerr.Database, "list commits", err)
	}
	defer rows.Close()

	var out []commit.Commit
	for rows.Next() {
		var digest, message, treeDigest, filesJSON string
		var parent sql.NullString
		var timestamp int64
		if err := rows.Scan(&digest, &parent, &message, &timestamp, &treeDigest, &filesJSON); err != nil {
			return nil, blazeerr.Wrap(blazeerr.Database, "scan commit row", err)
		}
		var files manifest.Map
		if err := json.Unmarshal([]byte(filesJSON), &files); err != nil {
			return nil, blazeerr.Wrap(blazeerr.Serialization, "unmarshal files_json", err)
		}
		c := commit.Commit{
			Digest:     hasher.Digest(digest),
			Message:    message,
			Timestamp:  timestamp,
			TreeDigest: hasher.Digest(treeDigest),
			Files:      files,
		}
		if parent.Valid {
			c.Parent = hasher.Digest(parent.String)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AllReferencedChunks returns the union of chunk digests referenced by
// staging and every commit, the active set §4.3's GC operates against.
func (s *Store) AllReferencedChunks(ctx context.Context) (map[hasher.Digest]struct{}, error) {
	active := map[hasher.Digest]struct{}{}

	staging, err := s.GetStaging(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range staging {
		for _, d := range f.Chunks {
			active[d] = struct{}{}
		}
	}

	commits, err := s.ListCommits(ctx, 0, "")
	if err != nil {
		return nil, err
	}
	for _, c := range commits {
		for _, f := range c.Files {
			for _, d := range f.Chunks {
				active[d] = struct{}{}
			}
		}
	}
	return active, nil
}

// GetRef returns the commit digest a ref points to. ok is false if the ref
// does not exist; an existing HEAD with an empty digest is represented as
// ok=true, digest="".
func (s *Store) GetRef(ctx context.Context, name string) (hasher.Digest, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT commit_digest FROM refs WHERE name = ?`, name)
	var digest sql.NullString
	if err := row.Scan(&digest); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, blazeerr.Wrap(blazeerr.Database, "get ref", err)
	}
	if !digest.Valid {
		return "", true, nil
	}
	return hasher.Digest(digest.String), true, nil
}

// PutRef creates or repoints a named ref. An empty digest is stored as
// NULL; repo.Init uses this to create HEAD with no commit.
func (s *Store) PutRef(ctx context.Context, name string, digest hasher.Digest) error {
	var arg sql.NullString
	if digest != "" {
		arg = sql.NullString{String: string(digest), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refs (name, commit_digest) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET commit_digest = excluded.commit_digest
	`, name, arg)
	if err != nil {
		return blazeerr.Wrap(blazeerr.Database, "put ref", err)
	}
	return nil
}

// DeleteRef removes a named ref. HEAD cannot be deleted, per spec §4.5.
func (s *Store) DeleteRef(ctx context.Context, name string) error {
	if name == "HEAD" {
		return blazeerr.New(blazeerr.Repository, "HEAD cannot be deleted")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM refs WHERE name = ?`, name)
	if err != nil {
		return blazeerr.Wrap(blazeerr.Database, "delete ref", err)
	}
	return nil
}

// ListRefs returns all refs ordered by name.
func (s *Store) ListRefs(ctx context.Context) (map[string]hasher.Digest, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, commit_digest FROM refs ORDER BY name`)
	if err != nil {
		return nil, blazeerr.Wrap(blazeerr.Database, "list refs", err)
	}
	defer rows.Close()
	out := map[string]hasher.Digest{}
	for rows.Next() {
		var name string
		var digest sql.NullString
		if err := rows.Scan(&name, &digest); err != nil {
			return nil, blazeerr.Wrap(blazeerr.Database, "scan ref row", err)
		}
		if digest.Valid {
			out[name] = hasher.Digest(digest.String)
		} else {
			out[name] = ""
		}
	}
	return out, rows.Err()
}

// Counters used by repo.Stats.

// CommitCount returns the number of commits recorded.
func (s *Store) CommitCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM commits`).Scan(&count)
	if err != nil {
		return 0, blazeerr.Wrap(blazeerr.Database, "count commits", err)
	}
	return count, nil
}

// StagedFileCount returns the number of entries currently staged.
func (s *Store) StagedFileCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM staging`).Scan(&count)
	if err != nil {
		return 0, blazeerr.Wrap(blazeerr.Database, "count staging", err)
	}
	return count, nil
}

// RemoveChunkRecords deletes the given digests from the chunks table, used
// by verify --fix to drop references to chunks confirmed missing on disk.
func (s *Store) RemoveChunkRecords(ctx context.Context, digests []hasher.Digest) error {
	if len(digests) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM chunks WHERE digest = ?`)
		if err != nil {
			return blazeerr.Wrap(blazeerr.Database, "prepare chunk delete", err)
		}
		defer stmt.Close()
		for _, d := range digests {
			if _, err := stmt.ExecContext(ctx, string(d)); err != nil {
				return blazeerr.Wrap(blazeerr.Database, "delete chunk record", err)
			}
		}
		return nil
	})
}

// IntegrityCheck reports store-level corruption as a list of issue
// strings; an empty slice means clean. SQLite's own integrity_check pragma
// and the staging table's chunks_json column are consulted; the commits
// table's files_json column is not checked here.
func (s *Store) IntegrityCheck(ctx context.Context) ([]string, error) {
	var issues []string

	rows, err := s.db.QueryContext(ctx, `PRAGMA integrity_check`)
	if err != nil {
		return nil, blazeerr.Wrap(blazeerr.Database, "run integrity_check pragma", err)
	}
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			rows.Close()
			return nil, blazeerr.Wrap(blazeerr.Database, "scan integrity_check row", err)
		}
		if line != "ok" {
			issues = append(issues, "sqlite: "+line)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, blazeerr.Wrap(blazeerr.Database, "iterate integrity_check rows", err)
	}

	fileRows, err := s.db.QueryContext(ctx, `SELECT path, chunks_json FROM staging`)
	if err != nil {
		return nil, blazeerr.Wrap(blazeerr.Database, "query staging for integrity check", err)
	}
	for fileRows.Next() {
		var path, chunksJSON string
		if err := fileRows.Scan(&path, &chunksJSON); err != nil {
			fileRows.Close()
			return nil, blazeerr.Wrap(blazeerr.Database, "scan staging row", err)
		}
		var chunks []hasher.Digest
		if err := json.Unmarshal([]byte(chunksJSON), &chunks); err != nil {
			issues = append(issues, fmt.Sprintf("staging %s: corrupt chunks_json", path))
		}
	}
	fileRows.Close()
	if err := fileRows.Err(); err != nil {
		return nil, blazeerr.Wrap(blazeerr.Database, "iterate staging rows", err)
	}

	return issues, nil
}

// Compact runs SQLite's VACUUM, used by optimize's metadata-store
// compaction step.
func (s *Store) Compact(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `VACUUM`)
	if err != nil {
		return blazeerr.Wrap(blazeerr.Database, "vacuum", err)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return blazeerr.Wrap(blazeerr.Database, "begin transaction", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return blazeerr.Wrap(blazeerr.Database, "commit transaction", err)
	}
	return nil
}
