package pipeline

import (
	"errors"
	"fmt"
)

// ErrNilDataset is returned when a stage produces no dataset.
var ErrNilDataset = errors.New("stage returned nil dataset")

// StageError reports which stage failed.
// It wraps the underlying error so errors.Is and errors.As keep working.
type StageError struct {
	// Stage is the Name() of the failing stage.
	Stage string

	// Err is the error returned by the stage.
	Err error
}

// Error implements error.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}
