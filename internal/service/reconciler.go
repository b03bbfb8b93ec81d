package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"docbin/internal/metrics"
	"docbin/internal/model"
	"docbin/internal/repository"
	"docbin/internal/storage"
)

const (
	opRemove    = "remove"
	opRemoveAll = "remove_all"
)

var errDescendantFailed = errors.New("descendant could not be purged")

// reconciler keeps the tree store and the filesystem mirror consistent during purges.
// The database is authoritative: a row is deleted even when its bytes cannot be,
// and orphaned disk objects are left for out-of-band scavenging.
type reconciler struct {
	repo    repository.TreeRepository
	mirror  storage.Mirror
	root    string
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// resolve maps a stored path under the storage root, rejecting escapes.
func (r *reconciler) resolve(ref model.EntityRef, p string) (string, error) {
	abs, err := storage.ResolvePath(r.root, p)
	if err != nil {
		if errors.Is(err, storage.ErrPathEscapesRoot) {
			return "", &PathSecurityError{Ref: ref, Path: p, Err: err}
		}
		return "", err
	}
	return abs, nil
}

// purgeFile removes a single file's bytes, then its row.
func (r *reconciler) purgeFile(ctx context.Context, f *model.File) error {
	p, err := r.resolve(f.Ref(), f.Path)
	if err != nil {
		return err
	}
	r.removeDisk(ctx, opRemove, f.Ref(), p)
	if err := r.repo.DeleteFile(ctx, f.ID); err != nil {
		return fmt.Errorf("delete file row: %w", err)
	}
	return nil
}

// subtree is a folder and everything below it, collected before any mutation.
type subtree struct {
	folders  []model.Folder // breadth-first, target first
	children map[string][]string
	files    map[string][]model.File
	paths    map[model.EntityRef]string
}

// resolveAll resolves every path in the subtree. The first escape aborts the purge.
func (r *reconciler) resolveAll(st *subtree) error {
	st.paths = make(map[model.EntityRef]string)
	for _, f := range st.folders {
		p, err := r.resolve(f.Ref(), f.Path)
		if err != nil {
			return err
		}
		st.paths[f.Ref()] = p
		for _, file := range st.files[f.ID] {
			p, err := r.resolve(file.Ref(), file.Path)
			if err != nil {
				return err
			}
			st.paths[file.Ref()] = p
		}
	}
	return nil
}

// purgeSubtree deletes rows post-order and then removes disk objects for what was deleted.
// A folder is only deleted once all of its files and subfolders are gone, so a failure
// never leaves a row pointing at a missing parent.
func (r *reconciler) purgeSubtree(ctx context.Context, st *subtree, res *CascadeResult) {
	gone := make(map[model.EntityRef]bool)

	for i := len(st.folders) - 1; i >= 0; i-- {
		folder := st.folders[i]
		clean := true

		for _, file := range st.files[folder.ID] {
			if err := r.repo.DeleteFile(ctx, file.ID); err != nil {
				res.fail(file.Ref(), fmt.Errorf("delete file row: %w", err))
				clean = false
				continue
			}
			gone[file.Ref()] = true
			res.succeed(file.Ref())
		}
		for _, childID := range st.children[folder.ID] {
			if !gone[model.EntityRef{Kind: model.KindFolder, ID: childID}] {
				clean = false
			}
		}

		if !clean {
			res.fail(folder.Ref(), errDescendantFailed)
			continue
		}
		if err := r.repo.DeleteFolder(ctx, folder.ID); err != nil {
			res.fail(folder.Ref(), fmt.Errorf("delete folder row: %w", err))
			continue
		}
		gone[folder.Ref()] = true
		res.succeed(folder.Ref())
	}

	r.removeSubtreeObjects(ctx, st, gone)
}

// removeSubtreeObjects removes each purged folder directory once, topmost first, then any
// purged file whose path is not inside a directory already removed.
func (r *reconciler) removeSubtreeObjects(ctx context.Context, st *subtree, gone map[model.EntityRef]bool) {
	var dirs []string
	covered := func(p string) bool {
		for _, d := range dirs {
			if p == d || storage.Within(d, p) {
				return true
			}
		}
		return false
	}

	for _, folder := range st.folders {
		ref := folder.Ref()
		if !gone[ref] || covered(st.paths[ref]) {
			continue
		}
		dirs = append(dirs, st.paths[ref])
		r.removeDisk(ctx, opRemoveAll, ref, st.paths[ref])
	}
	for _, folder := range st.folders {
		for _, file := range st.files[folder.ID] {
			ref := file.Ref()
			if !gone[ref] || covered(st.paths[ref]) {
				continue
			}
			r.removeDisk(ctx, opRemove, ref, st.paths[ref])
		}
	}
}

// removeDisk performs one disk removal. Failures, including objects already missing, are logged
// as DiskIOError warnings and counted, never returned. A failed call that nevertheless left nothing
// behind counts as done.
func (r *reconciler) removeDisk(ctx context.Context, op string, ref model.EntityRef, path string) {
	var err error
	switch op {
	case opRemoveAll:
		err = r.mirror.RemoveAll(ctx, path)
	default:
		err = r.mirror.Remove(ctx, path)
	}
	if err == nil {
		return
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		if exists, xErr := r.mirror.Exists(ctx, path); xErr == nil && !exists {
			return
		}
	}

	diskErr := &storage.DiskIOError{Op: op, Path: path, Err: err}
	r.metrics.DiskRemoveFailed()
	r.log.Warn().
		Err(diskErr).
		Str("error_kind", "disk_io").
		Str("entity_kind", string(ref.Kind)).
		Str("entity_id", ref.ID).
		Msg("disk removal failed during purge")
}
