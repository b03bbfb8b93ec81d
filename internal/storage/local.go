package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// LocalMirror implements Mirror on the local filesystem.
// It is safe for concurrent use; the OS serialises operations on the same path.
type LocalMirror struct{}

// NewLocalMirror creates the storage root if needed and returns a local mirror.
func NewLocalMirror(root string) (*LocalMirror, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalMirror{}, nil
}

// Remove deletes a single file. A missing file is reported as ErrObjectNotFound.
func (m *LocalMirror) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, ErrObjectNotFound)
		}
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (m *LocalMirror) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}

// RemoveAll deletes a directory tree. A missing directory is reported as ErrObjectNotFound.
func (m *LocalMirror) RemoveAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove tree %s: %w", path, ErrObjectNotFound)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove tree %s: %w", path, err)
	}
	return nil
}
