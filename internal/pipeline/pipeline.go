package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/joblevel/internal/dataset"
	"github.com/nao1215/joblevel/internal/model"
)

// Stage is a single dataset transformation.
// Process must treat its input as immutable and return a new dataset. It
// returns an error instead of a dataset that is missing columns it requires
// or whose columns are misaligned. Data-quality problems inside cells are
// resolved by the stage itself and never reported as errors.
type Stage interface {
	// Process transforms the dataset.
	Process(ctx context.Context, in *dataset.Dataset) (*dataset.Dataset, error)

	// Name returns the stage name for logging.
	Name() string
}

// Pipeline runs stages in the order they were added.
type Pipeline struct {
	// stages contains the ordered list of stages to execute.
	stages []Stage

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// observer receives statistics after each successful stage.
	observer func(model.StageStats)
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithObserver registers a callback that receives per-stage statistics.
// The CLI uses it to fill in the run report.
func WithObserver(fn func(model.StageStats)) Option {
	return func(p *Pipeline) {
		p.observer = fn
	}
}

// New creates a new Pipeline with the given options.
// Stages should be added using AddStage after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		stages: make([]Stage, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStage links stage as the successor of the current last stage and
// returns the pipeline, so a chain can be written fluently:
//
//	p.AddStage(a).AddStage(b).AddStage(c)
func (p *Pipeline) AddStage(stage Stage) *Pipeline {
	p.stages = append(p.stages, stage)
	return p
}

// AddStages appends multiple stages in order.
func (p *Pipeline) AddStages(stages ...Stage) *Pipeline {
	p.stages = append(p.stages, stages...)
	return p
}

// Execute runs every stage in sequence, passing each one the result of the
// previous stage, and returns the result of the last stage. With no stages
// the input is returned as is.
//
// The first failing stage stops the run. Its error is returned wrapped in a
// *StageError; later stages do not run. A stage that returns nil or a
// misaligned dataset is treated as failed.
func (p *Pipeline) Execute(ctx context.Context, in *dataset.Dataset) (*dataset.Dataset, error) {
	current := in
	if current == nil {
		current = dataset.Empty()
	}

	for _, stage := range p.stages {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"stage", stage.Name(),
				"reason", ctx.Err(),
			)
			return nil, ctx.Err()
		default:
		}

		p.logger.Info("executing stage",
			"stage", stage.Name(),
			"rows", current.Len(),
			"columns", current.Width(),
		)

		start := time.Now()
		out, err := stage.Process(ctx, current)
		if err == nil {
			err = checkResult(out)
		}
		if err != nil {
			p.logger.Error("stage failed",
				"stage", stage.Name(),
				"error", err,
			)
			return nil, &StageError{Stage: stage.Name(), Err: err}
		}

		stats := model.StageStats{
			Name:     stage.Name(),
			RowsIn:   current.Len(),
			RowsOut:  out.Len(),
			Columns:  out.Width(),
			Duration: time.Since(start),
		}
		p.logger.Debug("stage completed",
			"stage", stats.Name,
			"rowsIn", stats.RowsIn,
			"rowsOut", stats.RowsOut,
			"duration", stats.Duration,
		)
		if p.observer != nil {
			p.observer(stats)
		}

		current = out
	}

	return current, nil
}

// checkResult enforces the row-alignment invariant on a stage result.
func checkResult(out *dataset.Dataset) error {
	if out == nil {
		return ErrNilDataset
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("invalid stage output: %w", err)
	}
	return nil
}

// StageCount returns the number of stages in the pipeline.
func (p *Pipeline) StageCount() int {
	return len(p.stages)
}

// StageNames returns the names of all stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, stage := range p.stages {
		names[i] = stage.Name()
	}
	return names
}
