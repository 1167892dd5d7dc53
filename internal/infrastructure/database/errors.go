package database

import "errors"

var (
	// ErrNoPath is returned by Open when the configured path is empty.
	ErrNoPath = errors.New("database: path is required")

	// ErrDuplicateMigration is returned when two .up.sql files share a version.
	ErrDuplicateMigration = errors.New("database: duplicate migration version")
)
