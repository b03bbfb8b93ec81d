package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"docbin/internal/model"
	"docbin/internal/repository"
)

// TreeStore is an in-memory repository.TreeRepository for tests. It follows the PostgreSQL
// implementation: single-row lifecycle updates, sql.ErrNoRows for missing rows, idempotent deletes,
// and every call fails with ctx.Err() once the context is done, as database/sql does.
// It is safe for concurrent use.
type TreeStore struct {
	mu      sync.RWMutex
	folders map[string]model.Folder
	files   map[string]model.File

	// failUpdate, when set, is consulted before each lifecycle update.
	failUpdate func(ref model.EntityRef) error
	// failList, when set, is consulted before listing a folder's files or subfolders.
	failList func(folderID string) error
}

// NewTreeStore returns an empty store.
func NewTreeStore() *TreeStore {
	return &TreeStore{
		folders: make(map[string]model.Folder),
		files:   make(map[string]model.File),
	}
}

var _ repository.TreeRepository = (*TreeStore)(nil)

// PutFolder inserts or replaces a folder.
func (s *TreeStore) PutFolder(f model.Folder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[f.ID] = f
}

// PutFile inserts or replaces a file.
func (s *TreeStore) PutFile(f model.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[f.ID] = f
}

// FailUpdates makes lifecycle updates return the error produced by fn (nil lets the update through).
func (s *TreeStore) FailUpdates(fn func(ref model.EntityRef) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdate = fn
}

// FailLists makes listing the contents of a folder return the error produced by fn.
func (s *TreeStore) FailLists(fn func(folderID string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failList = fn
}

func (s *TreeStore) listErr(ctx context.Context, folderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failList != nil {
		return s.failList(folderID)
	}
	return nil
}

// Counts returns the number of folder and file rows.
func (s *TreeStore) Counts() (folders, files int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.folders), len(s.files)
}

func (s *TreeStore) FindFolder(ctx context.Context, id string) (*model.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &f, nil
}

func (s *TreeStore) FindFile(ctx context.Context, id string) (*model.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &f, nil
}

func (s *TreeStore) ListChildFolders(ctx context.Context, parentID string) ([]model.Folder, error) {
	if err := s.listErr(ctx, parentID); err != nil {
		return nil, err
	}
	return s.selectFolders(func(f model.Folder) bool {
		return f.ParentID != nil && *f.ParentID == parentID
	}), nil
}

func (s *TreeStore) ListFolderFiles(ctx context.Context, folderID string) ([]model.File, error) {
	if err := s.listErr(ctx, folderID); err != nil {
		return nil, err
	}
	return s.selectFiles(func(f model.File) bool {
		return f.FolderID != nil && *f.FolderID == folderID
	}), nil
}

func (s *TreeStore) UpdateFolderLifecycle(ctx context.Context, id string, l model.Lifecycle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		if err := s.failUpdate(model.EntityRef{Kind: model.KindFolder, ID: id}); err != nil {
			return err
		}
	}
	f, ok := s.folders[id]
	if !ok {
		return sql.ErrNoRows
	}
	f.Lifecycle = l
	s.folders[id] = f
	return nil
}

func (s *TreeStore) UpdateFileLifecycle(ctx context.Context, id string, l model.Lifecycle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		if err := s.failUpdate(model.EntityRef{Kind: model.KindFile, ID: id}); err != nil {
			return err
		}
	}
	f, ok := s.files[id]
	if !ok {
		return sql.ErrNoRows
	}
	f.Lifecycle = l
	s.files[id] = f
	return nil
}

func (s *TreeStore) DeleteFolder(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.folders, id)
	return nil
}

func (s *TreeStore) DeleteFile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, id)
	return nil
}

func (s *TreeStore) ListBinnedFolders(ctx context.Context) ([]model.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.selectFolders(func(f model.Folder) bool { return f.IsDeleted }), nil
}

func (s *TreeStore) ListBinnedFiles(ctx context.Context) ([]model.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.selectFiles(func(f model.File) bool { return f.IsDeleted }), nil
}

func (s *TreeStore) ListExpiredFolders(ctx context.Context, now time.Time) ([]model.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.selectFolders(func(f model.Folder) bool {
		return f.IsDeleted && f.DeleteAfter != nil && !f.DeleteAfter.After(now)
	}), nil
}

func (s *TreeStore) ListExpiredFiles(ctx context.Context, now time.Time) ([]model.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.selectFiles(func(f model.File) bool {
		return f.IsDeleted && f.DeleteAfter != nil && !f.DeleteAfter.After(now)
	}), nil
}

func (s *TreeStore) selectFolders(keep func(model.Folder) bool) []model.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Folder, 0)
	for _, f := range s.folders {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *TreeStore) selectFiles(keep func(model.File) bool) []model.File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.File, 0)
	for _, f := range s.files {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
