package model

import "time"

// Folder is a node of the folder forest. A nil ParentID makes it a root.
type Folder struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	ParentID *string `json:"parent_id"`
	Tags
	OwnerID string `json:"owner_id"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
}

// IsRoot reports whether the folder has no parent.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// Ref returns the folder's entity reference.
func (f *Folder) Ref() EntityRef {
	return EntityRef{Kind: KindFolder, ID: f.ID}
}
