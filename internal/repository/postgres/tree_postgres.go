package postgres

import (
	"context"
	"database/sql"
	"time"

	"docbin/internal/model"
	"docbin/internal/repository"
)

// TreePostgres is a PostgreSQL implementation of repository.TreeRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type TreePostgres struct {
	db *sql.DB
}

// NewTreePostgres creates a new TreePostgres repository.
func NewTreePostgres(db *sql.DB) *TreePostgres {
	return &TreePostgres{db: db}
}

var _ repository.TreeRepository = (*TreePostgres)(nil)

const folderColumns = `id, name, path, parent_id, fiscal_year_id, source_id, grant_type_id, owner_id,
		is_deleted, deleted_at, delete_after, created_at`

const fileColumns = `id, name, path, type, size, folder_id, fiscal_year_id, source_id, grant_type_id, owner_id,
		is_deleted, deleted_at, delete_after, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*model.Folder, error) {
	var f model.Folder
	if err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Path,
		&f.ParentID,
		&f.FiscalYearID,
		&f.SourceID,
		&f.GrantTypeID,
		&f.OwnerID,
		&f.IsDeleted,
		&f.DeletedAt,
		&f.DeleteAfter,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanFile(row rowScanner) (*model.File, error) {
	var f model.File
	if err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Path,
		&f.Type,
		&f.Size,
		&f.FolderID,
		&f.FiscalYearID,
		&f.SourceID,
		&f.GrantTypeID,
		&f.OwnerID,
		&f.IsDeleted,
		&f.DeletedAt,
		&f.DeleteAfter,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindFolder fetches a single folder by its ID.
func (r *TreePostgres) FindFolder(ctx context.Context, id string) (*model.Folder, error) {
	q := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1`
	return scanFolder(r.db.QueryRowContext(ctx, q, id))
}

// FindFile fetches a single file by its ID.
func (r *TreePostgres) FindFile(ctx context.Context, id string) (*model.File, error) {
	q := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(r.db.QueryRowContext(ctx, q, id))
}

// ListChildFolders returns the direct subfolders of parentID.
func (r *TreePostgres) ListChildFolders(ctx context.Context, parentID string) ([]model.Folder, error) {
	q := `SELECT ` + folderColumns + ` FROM folders WHERE parent_id = $1 ORDER BY name ASC, id ASC`
	return r.queryFolders(ctx, q, parentID)
}

// ListFolderFiles returns the files directly inside folderID.
func (r *TreePostgres) ListFolderFiles(ctx context.Context, folderID string) ([]model.File, error) {
	q := `SELECT ` + fileColumns + ` FROM files WHERE folder_id = $1 ORDER BY name ASC, id ASC`
	return r.queryFiles(ctx, q, folderID)
}

// UpdateFolderLifecycle sets the three lifecycle columns of one folder in a single statement.
func (r *TreePostgres) UpdateFolderLifecycle(ctx context.Context, id string, l model.Lifecycle) error {
	const q = `UPDATE folders SET is_deleted = $1, deleted_at = $2, delete_after = $3 WHERE id = $4`
	return r.execOne(ctx, q, l.IsDeleted, l.DeletedAt, l.DeleteAfter, id)
}

// UpdateFileLifecycle sets the three lifecycle columns of one file in a single statement.
func (r *TreePostgres) UpdateFileLifecycle(ctx context.Context, id string, l model.Lifecycle) error {
	const q = `UPDATE files SET is_deleted = $1, deleted_at = $2, delete_after = $3 WHERE id = $4`
	return r.execOne(ctx, q, l.IsDeleted, l.DeletedAt, l.DeleteAfter, id)
}

// DeleteFolder removes a folder row. It does not return an error if the row does not exist.
func (r *TreePostgres) DeleteFolder(ctx context.Context, id string) error {
	const q = `DELETE FROM folders WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// DeleteFile removes a file row. It does not return an error if the row does not exist.
func (r *TreePostgres) DeleteFile(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// ListBinnedFolders returns all binned folders, most recently binned first.
func (r *TreePostgres) ListBinnedFolders(ctx context.Context) ([]model.Folder, error) {
	q := `SELECT ` + folderColumns + ` FROM folders WHERE is_deleted ORDER BY deleted_at DESC, id DESC`
	return r.queryFolders(ctx, q)
}

// ListBinnedFiles returns all binned files, most recently binned first.
func (r *TreePostgres) ListBinnedFiles(ctx context.Context) ([]model.File, error) {
	q := `SELECT ` + fileColumns + ` FROM files WHERE is_deleted ORDER BY deleted_at DESC, id DESC`
	return r.queryFiles(ctx, q)
}

// ListExpiredFolders returns binned folders whose retention deadline has passed.
func (r *TreePostgres) ListExpiredFolders(ctx context.Context, now time.Time) ([]model.Folder, error) {
	q := `SELECT ` + folderColumns + ` FROM folders WHERE is_deleted AND delete_after <= $1 ORDER BY delete_after ASC, id ASC`
	return r.queryFolders(ctx, q, now)
}

// ListExpiredFiles returns binned files whose retention deadline has passed.
func (r *TreePostgres) ListExpiredFiles(ctx context.Context, now time.Time) ([]model.File, error) {
	q := `SELECT ` + fileColumns + ` FROM files WHERE is_deleted AND delete_after <= $1 ORDER BY delete_after ASC, id ASC`
	return r.queryFiles(ctx, q, now)
}

func (r *TreePostgres) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *TreePostgres) queryFolders(ctx context.Context, q string, args ...any) ([]model.Folder, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Folder, 0)
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *TreePostgres) queryFiles(ctx context.Context, q string, args ...any) ([]model.File, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
