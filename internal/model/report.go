package model

import "time"

// StageStats records what one stage did to the dataset.
type StageStats struct {
	// Name is the stage name.
	Name string `json:"name"`

	// RowsIn is the row count the stage received.
	RowsIn int `json:"rows_in"`

	// RowsOut is the row count the stage produced.
	RowsOut int `json:"rows_out"`

	// Columns is the number of columns the stage produced.
	Columns int `json:"columns"`

	// Duration is the wall time spent in the stage.
	Duration time.Duration `json:"duration"`
}

// RunReport is the record of a single pipeline run.
// It is filled in by the CLI as the run progresses and is what report
// writers and the history database consume.
type RunReport struct {
	// ID is the database identifier. Zero for unsaved reports.
	ID int64 `json:"id,omitempty"`

	// InputPath is the CSV file the run started from.
	InputPath string `json:"input_path"`

	// Fingerprint is the hex SHA3-256 digest of the input file.
	Fingerprint string `json:"fingerprint,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended, successfully or not.
	FinishedAt time.Time `json:"finished_at"`

	// Stages lists per-stage statistics in execution order.
	// A failed run lists only the stages that completed.
	Stages []StageStats `json:"stages"`

	// FinalColumns are the column names of the output dataset.
	FinalColumns []string `json:"final_columns,omitempty"`

	// FinalRows is the row count of the output dataset.
	FinalRows int `json:"final_rows"`

	// Evaluation holds the trainer's metrics, if training ran.
	Evaluation *Evaluation `json:"evaluation,omitempty"`

	// Error is the message of the structural error that aborted the run.
	Error string `json:"error,omitempty"`
}

// NewRunReport creates a report for the given input file.
func NewRunReport(inputPath string) *RunReport {
	return &RunReport{
		InputPath: inputPath,
		StartedAt: time.Now(),
		Stages:    make([]StageStats, 0),
	}
}

// AddStage appends stage statistics.
func (r *RunReport) AddStage(s StageStats) {
	r.Stages = append(r.Stages, s)
}

// Succeeded reports whether the run finished without a structural error.
func (r *RunReport) Succeeded() bool {
	return r.Error == ""
}

// Duration returns the total run time.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
