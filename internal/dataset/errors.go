package dataset

import "errors"

// Errors returned by Dataset constructors and operations.
// All of them describe a structural problem with the table itself.
var (
	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrRowMisaligned is returned when columns have different lengths.
	ErrRowMisaligned = errors.New("columns have different row counts")
)
