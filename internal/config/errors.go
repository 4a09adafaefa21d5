package config

import "errors"

// Configuration validation errors returned by Config.Validate and File.Apply.
var (
	// ErrNoInput is returned when no input file is given.
	ErrNoInput = errors.New("no input specified: provide a CSV file")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidDelimiter is returned for a delimiter that cannot separate CSV fields.
	ErrInvalidDelimiter = errors.New("invalid delimiter: must be a single character other than quote or newline")

	// ErrInvalidTrees is returned when the tree count is not positive.
	ErrInvalidTrees = errors.New("invalid tree count: must be positive")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMinSamplesLeaf is returned when the leaf size is not positive.
	ErrInvalidMinSamplesLeaf = errors.New("invalid min samples per leaf: must be positive")

	// ErrInvalidMaxFeatures is returned when the features per split is negative.
	ErrInvalidMaxFeatures = errors.New("invalid max features: must be non-negative")

	// ErrInvalidTestSize is returned when the hold-out share is outside (0, 1).
	ErrInvalidTestSize = errors.New("invalid test size: must be between 0 and 1")

	// ErrInvalidMinRows is returned when the minimum row count is negative.
	ErrInvalidMinRows = errors.New("invalid min rows: must be non-negative")

	// ErrInvalidClassWeight is returned for an unknown level or a non-positive weight.
	ErrInvalidClassWeight = errors.New("invalid class weight: level must be Junior, Middle or Senior and weight positive")
)
