package stage

import "errors"

// Sentinel errors returned by stages.
var (
	// ErrEmptyFile is returned when the input file has no header row.
	ErrEmptyFile = errors.New("input file is empty")

	// ErrMalformedInput is returned when a record cannot be aligned with the header.
	ErrMalformedInput = errors.New("malformed input")

	// ErrMissingColumn is returned when a stage requires a column that is absent.
	ErrMissingColumn = errors.New("required column is missing")

	// ErrUnencodedColumn is returned when the trainer receives a text column.
	ErrUnencodedColumn = errors.New("column is not numeric")

	// ErrInvalidLabel is returned when the target column holds an unknown level.
	ErrInvalidLabel = errors.New("invalid target label")

	// ErrUnknownEncoding is returned when the configured input encoding is not recognized.
	ErrUnknownEncoding = errors.New("unknown encoding")
)
