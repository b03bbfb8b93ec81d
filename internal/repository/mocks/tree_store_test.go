package mocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"docbin/internal/model"
	"docbin/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTreeStore(t *testing.T) {
	ctx := context.Background()
	s := NewTreeStore()

	s.PutFolder(model.Folder{ID: "a", Name: "A", Path: "A"})
	s.PutFolder(model.Folder{ID: "b", Name: "B", Path: "A/B", ParentID: strPtr("a")})
	s.PutFile(model.File{ID: "f", Name: "f.txt", Path: "A/f.txt", FolderID: strPtr("a")})
	s.PutFile(model.File{ID: "loose", Name: "l.txt", Path: "l.txt"})

	children, err := s.ListChildFolders(ctx, "a")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "b", children[0].ID)

	files, err := s.ListFolderFiles(ctx, "a")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "f", files[0].ID)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, s.UpdateFileLifecycle(ctx, "loose", model.Lifecycle{IsDeleted: true, DeletedAt: &past, DeleteAfter: &past}))

	binned, err := s.ListBinnedFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, binned, 1)

	expired, err := s.ListExpiredFiles(ctx, time.Now())
	require.NoError(t, err)
	assert.Len(t, expired, 1)

	err = s.UpdateFolderLifecycle(ctx, "missing", model.Lifecycle{})
	assert.True(t, repository.IsNotFound(err))

	require.NoError(t, s.DeleteFile(ctx, "loose"))
	require.NoError(t, s.DeleteFile(ctx, "loose"))
	_, err = s.FindFile(ctx, "loose")
	assert.True(t, repository.IsNotFound(err))

	folders, fileCount := s.Counts()
	assert.Equal(t, 2, folders)
	assert.Equal(t, 1, fileCount)
}

func TestTreeStore_FailUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewTreeStore()
	s.PutFile(model.File{ID: "f"})

	boom := errors.New("locked")
	s.FailUpdates(func(ref model.EntityRef) error {
		if ref.ID == "f" {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, s.UpdateFileLifecycle(ctx, "f", model.Lifecycle{}), boom)
}

func TestTreeStore_FailLists(t *testing.T) {
	ctx := context.Background()
	s := NewTreeStore()
	s.PutFolder(model.Folder{ID: "a"})

	boom := errors.New("statement timeout")
	s.FailLists(func(folderID string) error {
		if folderID == "a" {
			return boom
		}
		return nil
	})

	_, err := s.ListChildFolders(ctx, "a")
	assert.ErrorIs(t, err, boom)
	_, err = s.ListFolderFiles(ctx, "a")
	assert.ErrorIs(t, err, boom)
	_, err = s.ListChildFolders(ctx, "other")
	assert.NoError(t, err)
}

func TestTreeStore_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewTreeStore()
	s.PutFolder(model.Folder{ID: "a"})
	cancel()

	_, err := s.FindFolder(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.DeleteFolder(ctx, "a"), context.Canceled)
	_, err = s.ListExpiredFolders(ctx, time.Now())
	assert.ErrorIs(t, err, context.Canceled)

	folders, _ := s.Counts()
	assert.Equal(t, 1, folders)
}
