// Package lockmgr implements the whole-repository exclusive advisory lock
// (spec §4.8). Grounded directly on the teacher's
// internal/chunk/file/manager.go lock acquisition: an os.OpenFile'd lock
// file plus syscall.Flock(LOCK_EX|LOCK_NB), failing immediately rather
// than queuing.
package lockmgr

import (
	"fmt"
	"os"
	"syscall"

	"blaze/internal/blazeerr"
)

// ErrLockHeld is returned when another process already holds the lock.
var ErrLockHeld = blazeerr.New(blazeerr.Lock, "repository is locked by another process")

// Lock is a held exclusive advisory lock on a repository directory.
type Lock struct {
	file *os.File
	path string
}

// Acquire opens (creating if necessary) the lock file at path and takes an
// exclusive, non-blocking advisory lock on it. A held lock returns
// ErrLockHeld immediately; mutating operations never queue for the lock
// per spec §4.8.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, blazeerr.Wrap(blazeerr.Lock, fmt.Sprintf("open lock file %s", path), err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, ErrLockHeld
	}
	return &Lock{file: f, path: path}, nil
}

// Release drops the lock, including on error paths — callers should defer
// this immediately after a successful Acquire.
func (l *Lock) Release() error {
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		l.file.Close()
		return blazeerr.Wrap(blazeerr.Lock, "release lock", err)
	}
	return l.file.Close()
}
