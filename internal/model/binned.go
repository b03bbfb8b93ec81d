package model

import "time"

// BinnedItem is a flattened view of a binned folder or file, for presentation by a UI.
type BinnedItem struct {
	Kind     EntityKind `json:"kind"`
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	ParentID *string    `json:"parent_id,omitempty"`
	Tags
	OwnerID     string    `json:"owner_id"`
	DeletedAt   time.Time `json:"deleted_at"`
	DeleteAfter time.Time `json:"delete_after"`
}

// BinnedFolder converts a binned folder into a BinnedItem.
func BinnedFolder(f Folder) BinnedItem {
	return BinnedItem{
		Kind:        KindFolder,
		ID:          f.ID,
		Name:        f.Name,
		Path:        f.Path,
		ParentID:    f.ParentID,
		Tags:        f.Tags,
		OwnerID:     f.OwnerID,
		DeletedAt:   deref(f.DeletedAt),
		DeleteAfter: deref(f.DeleteAfter),
	}
}

// BinnedFile converts a binned file into a BinnedItem.
func BinnedFile(f File) BinnedItem {
	return BinnedItem{
		Kind:        KindFile,
		ID:          f.ID,
		Name:        f.Name,
		Path:        f.Path,
		ParentID:    f.FolderID,
		Tags:        f.Tags,
		OwnerID:     f.OwnerID,
		DeletedAt:   deref(f.DeletedAt),
		DeleteAfter: deref(f.DeleteAfter),
	}
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
