package mocks

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"docbin/internal/storage"
)

// MemoryMirror is an in-memory storage.Mirror for tests that records every call. Paths are treated as objects;
// a directory exists implicitly while any object lives below it.
type MemoryMirror struct {
	mu      sync.Mutex
	objects map[string]struct{}
	fail    map[string]error
	calls   []string
}

// NewMemoryMirror returns a mirror holding the given object paths.
func NewMemoryMirror(paths ...string) *MemoryMirror {
	m := &MemoryMirror{objects: make(map[string]struct{}), fail: make(map[string]error)}
	for _, p := range paths {
		m.objects[filepath.Clean(p)] = struct{}{}
	}
	return m
}

// FailOn makes any operation on path return err.
func (m *MemoryMirror) FailOn(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[filepath.Clean(path)] = err
}

// Calls returns the operations performed so far, formatted as "op path".
func (m *MemoryMirror) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Objects returns the remaining object paths, sorted.
func (m *MemoryMirror) Objects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Exists is not recorded in Calls and ignores FailOn.
func (m *MemoryMirror) Exists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	for p := range m.objects {
		if p == path || storage.Within(path, p) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryMirror) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.calls = append(m.calls, "remove "+path)
	if err := m.fail[path]; err != nil {
		return err
	}
	if _, ok := m.objects[path]; !ok {
		return fmt.Errorf("remove %s: %w", path, storage.ErrObjectNotFound)
	}
	delete(m.objects, path)
	return nil
}

func (m *MemoryMirror) RemoveAll(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.calls = append(m.calls, "removeall "+path)
	if err := m.fail[path]; err != nil {
		return err
	}
	removed := 0
	for p := range m.objects {
		if p == path || storage.Within(path, p) {
			delete(m.objects, p)
			removed++
		}
	}
	if removed == 0 {
		return fmt.Errorf("remove tree %s: %w", path, storage.ErrObjectNotFound)
	}
	return nil
}
