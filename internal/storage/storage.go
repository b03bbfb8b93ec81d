// Package storage contains the filesystem mirror of the tree store.
// The mirror is a best-effort copy of content: the database decides whether an entity exists,
// the mirror only holds its bytes. Implementations receive paths already resolved by ResolvePath.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound is returned when the object or directory to remove is already missing.
	ErrObjectNotFound = errors.New("object not found")
	// ErrPathEscapesRoot is returned when a stored path resolves outside the storage root.
	ErrPathEscapesRoot = errors.New("path escapes storage root")
)

// Mirror is the side-effecting disk capability used by the reconciler.
type Mirror interface {
	// Remove deletes a single object.
	Remove(ctx context.Context, path string) error
	// RemoveAll deletes a directory and everything below it.
	RemoveAll(ctx context.Context, path string) error
	// Exists reports whether an object, or anything below a directory, is present at path.
	Exists(ctx context.Context, path string) (bool, error)
}

// DiskIOError describes a disk operation that failed. It is never fatal to a purge.
type DiskIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *DiskIOError) Error() string {
	return fmt.Sprintf("disk %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DiskIOError) Unwrap() error {
	return e.Err
}
