package repository

import (
	"context"
	"time"

	"docbin/internal/model"
)

// TreeRepository defines data access for the folder/file forest using SQL queries only.
// No business logic here; lifecycle values are computed by the caller.
type TreeRepository interface {
	// FindFolder returns a folder by its ID, or sql.ErrNoRows.
	FindFolder(ctx context.Context, id string) (*model.Folder, error)

	// FindFile returns a file by its ID, or sql.ErrNoRows.
	FindFile(ctx context.Context, id string) (*model.File, error)

	// ListChildFolders returns the direct subfolders of a folder, in any lifecycle state.
	ListChildFolders(ctx context.Context, parentID string) ([]model.Folder, error)

	// ListFolderFiles returns the files directly inside a folder, in any lifecycle state.
	ListFolderFiles(ctx context.Context, folderID string) ([]model.File, error)

	// UpdateFolderLifecycle writes all lifecycle columns of one folder in a single row update.
	// Returns sql.ErrNoRows if the folder does not exist.
	UpdateFolderLifecycle(ctx context.Context, id string, l model.Lifecycle) error

	// UpdateFileLifecycle writes all lifecycle columns of one file in a single row update.
	// Returns sql.ErrNoRows if the file does not exist.
	UpdateFileLifecycle(ctx context.Context, id string, l model.Lifecycle) error

	// DeleteFolder removes a folder row. It returns nil if the row did not exist.
	DeleteFolder(ctx context.Context, id string) error

	// DeleteFile removes a file row. It returns nil if the row did not exist.
	DeleteFile(ctx context.Context, id string) error

	// ListBinnedFolders returns every folder with is_deleted set.
	ListBinnedFolders(ctx context.Context) ([]model.Folder, error)

	// ListBinnedFiles returns every file with is_deleted set.
	ListBinnedFiles(ctx context.Context) ([]model.File, error)

	// ListExpiredFolders returns binned folders whose delete_after is at or before now.
	ListExpiredFolders(ctx context.Context, now time.Time) ([]model.Folder, error)

	// ListExpiredFiles returns binned files whose delete_after is at or before now.
	ListExpiredFiles(ctx context.Context, now time.Time) ([]model.File, error)
}
