package model

import "time"

// File is a stored file. A nil FolderID marks a loose file that lives outside any folder;
// loose files are always lifecycle-managed on their own.
type File struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Type     string  `json:"type"`
	Size     int64   `json:"size"`
	FolderID *string `json:"folder_id"`
	Tags
	OwnerID string `json:"owner_id"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
}

// IsLoose reports whether the file is outside any folder.
func (f *File) IsLoose() bool {
	return f.FolderID == nil
}

// Ref returns the file's entity reference.
func (f *File) Ref() EntityRef {
	return EntityRef{Kind: KindFile, ID: f.ID}
}
