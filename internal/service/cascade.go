package service

import (
	"context"
	"fmt"
	"time"

	"docbin/internal/lifecycle"
	"docbin/internal/model"
	"docbin/internal/repository"
)

// Cascades walk the tree iteratively with an explicit queue. A visited set guards against
// cycles in damaged parent links.

// transition computes an entity's next lifecycle. changed=false leaves the row untouched.
type transition func(l model.Lifecycle) (next model.Lifecycle, changed bool, err error)

func binning(now time.Time, retention time.Duration) transition {
	return func(l model.Lifecycle) (model.Lifecycle, bool, error) {
		if lifecycle.StateOf(l) == lifecycle.Binned {
			return l, false, nil
		}
		next, err := lifecycle.Bin(l, now, retention)
		return next, err == nil, err
	}
}

func restoring(l model.Lifecycle) (model.Lifecycle, bool, error) {
	next, changed := lifecycle.Restore(l)
	return next, changed, nil
}

func folderRef(id string) model.EntityRef {
	return model.EntityRef{Kind: model.KindFolder, ID: id}
}

// applyFolder persists a folder transition and records the outcome.
// A row that vanished underneath the cascade is skipped.
func (s *lifecycleService) applyFolder(ctx context.Context, f model.Folder, t transition, res *CascadeResult) {
	next, changed, err := t(f.Lifecycle)
	switch {
	case err != nil:
		res.fail(f.Ref(), err)
		return
	case !changed:
		res.unchanged(f.Ref())
		return
	}
	if err := s.repo.UpdateFolderLifecycle(ctx, f.ID, next); err != nil {
		if !repository.IsNotFound(err) {
			res.fail(f.Ref(), err)
		}
		return
	}
	res.succeed(f.Ref())
}

func (s *lifecycleService) applyFile(ctx context.Context, f model.File, t transition, res *CascadeResult) {
	next, changed, err := t(f.Lifecycle)
	switch {
	case err != nil:
		res.fail(f.Ref(), err)
		return
	case !changed:
		res.unchanged(f.Ref())
		return
	}
	if err := s.repo.UpdateFileLifecycle(ctx, f.ID, next); err != nil {
		if !repository.IsNotFound(err) {
			res.fail(f.Ref(), err)
		}
		return
	}
	res.succeed(f.Ref())
}

// cascadeDown applies t to every file and folder below rootID, breadth-first: a folder's files,
// then its subfolders, parents before children. A listing failure is recorded as a subtree failure
// of the folder being expanded, which may already be in Succeeded; nothing below it is visited and
// its siblings carry on.
func (s *lifecycleService) cascadeDown(ctx context.Context, rootID string, t transition, res *CascadeResult) {
	seen := map[string]bool{rootID: true}
	queue := []string{rootID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		files, err := s.repo.ListFolderFiles(ctx, id)
		if err != nil {
			res.failSubtree(folderRef(id), fmt.Errorf("list files: %w", err))
			continue
		}
		for _, f := range files {
			s.applyFile(ctx, f, t, res)
		}

		children, err := s.repo.ListChildFolders(ctx, id)
		if err != nil {
			res.failSubtree(folderRef(id), fmt.Errorf("list subfolders: %w", err))
			continue
		}
		for _, c := range children {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			s.applyFolder(ctx, c, t, res)
			queue = append(queue, c.ID)
		}
	}
}

// binnedAncestors walks parent links from parentID and returns the binned ancestors, topmost
// first. The walk stops at the first active ancestor, at a root, or at a parent that no longer exists.
func (s *lifecycleService) binnedAncestors(ctx context.Context, parentID *string) ([]model.Folder, error) {
	var chain []model.Folder
	seen := make(map[string]bool)

	for id := parentID; id != nil && !seen[*id]; {
		seen[*id] = true
		f, err := s.repo.FindFolder(ctx, *id)
		if err != nil {
			if repository.IsNotFound(err) {
				break
			}
			return nil, fmt.Errorf("find ancestor %s: %w", *id, err)
		}
		if lifecycle.StateOf(f.Lifecycle) != lifecycle.Binned {
			break
		}
		chain = append(chain, *f)
		id = f.ParentID
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// restoreAncestors restores the binned ancestor chain top-down so a restored entity is reachable.
// Only the ancestor folder rows change; their other contents stay in the bin.
func (s *lifecycleService) restoreAncestors(ctx context.Context, parentID *string, res *CascadeResult) error {
	chain, err := s.binnedAncestors(ctx, parentID)
	if err != nil {
		return err
	}
	for _, f := range chain {
		s.applyFolder(ctx, f, restoring, res)
	}
	return nil
}

// collectSubtree gathers a folder and every descendant without mutating anything.
func (s *lifecycleService) collectSubtree(ctx context.Context, root model.Folder) (*subtree, error) {
	st := &subtree{
		children: make(map[string][]string),
		files:    make(map[string][]model.File),
	}
	seen := map[string]bool{root.ID: true}
	st.folders = append(st.folders, root)

	for i := 0; i < len(st.folders); i++ {
		id := st.folders[i].ID

		files, err := s.repo.ListFolderFiles(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list files of %s: %w", id, err)
		}
		st.files[id] = files

		children, err := s.repo.ListChildFolders(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list subfolders of %s: %w", id, err)
		}
		for _, c := range children {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			st.children[id] = append(st.children[id], c.ID)
			st.folders = append(st.folders, c)
		}
	}
	return st, nil
}
