// Package model contains the domain models of the tree store.
// These are plain structs with no database-specific dependencies or tags beyond JSON.
package model

import "time"

// EntityKind distinguishes folders from files in cascade results and bin listings.
type EntityKind string

const (
	KindFolder EntityKind = "folder"
	KindFile   EntityKind = "file"
)

// EntityRef identifies a single folder or file.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// Lifecycle holds the columns that encode an entity's lifecycle state.
// Only the lifecycle package computes new values for these fields.
type Lifecycle struct {
	IsDeleted   bool       `json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeleteAfter *time.Time `json:"delete_after,omitempty"`
}

// Tags are the nullable categorical tags shared by folders and files.
// Files normally copy them from their containing folder at creation.
type Tags struct {
	FiscalYearID *string `json:"fiscal_year_id,omitempty"`
	SourceID     *string `json:"source_id,omitempty"`
	GrantTypeID  *string `json:"grant_type_id,omitempty"`
}
