// Package blazeerr defines the error-kind taxonomy shared across the engine.
//
// Every package still exports its own sentinel values for the specific
// conditions it can raise (chunkstore.ErrMissingChunk, lockmgr.ErrLockHeld,
// ...), the way the teacher's packages do (chunk.ErrChunkNotFound,
// format.ErrHeaderTooSmall). blazeerr.Error wraps those sentinels with a
// shared Kind so callers that only care about the broad category can test
// with errors.As without every package reinventing the same enum.
package blazeerr

import "fmt"

// Kind classifies the broad category of an engine error.
type Kind int

const (
	_ Kind = iota
	IO
	Database
	Filesystem
	Repository
	Chunk
	Lock
	Serialization
	Path
	Validation
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "io"
	case Database:
		return "database"
	case Filesystem:
		return "filesystem"
	case Repository:
		return "repository"
	case Chunk:
		return "chunk"
	case Lock:
		return "lock"
	case Serialization:
		return "serialization"
	case Path:
		return "path"
	case Validation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is a contextual error carrying a Kind and an optional cause.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with the given kind and contextual message.
func New(kind Kind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Wrap builds an *Error that carries cause as its Unwrap() target.
func Wrap(kind Kind, context string, cause error) *Error {
	if cause == nil {
		return New(kind, context)
	}
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !asError(err, &e) {
		return false
	}
	return e.Kind == kind
}

// asError is a small local errors.As to avoid importing errors just for this.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
