package repository

// Package repository contains data access layer abstractions.
// The postgres implementation and the test doubles under mocks/ live in subpackages of this directory.

import (
	"database/sql"
	"errors"
)

// IsNotFound reports whether err means the requested row does not exist.
// Every implementation reports missing rows as sql.ErrNoRows.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
