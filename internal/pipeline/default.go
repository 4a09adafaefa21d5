package pipeline

import (
	"github.com/nao1215/joblevel/internal/dataset"
	"github.com/nao1215/joblevel/internal/stage"
)

// ChainConfig holds the settings of the standard stage chain.
type ChainConfig struct {
	// Input is the path of the delimited file to load.
	Input string

	// Columns names the experience and salary columns.
	// Empty fields fall back to name discovery.
	Columns dataset.ColumnSet

	// Loader controls file parsing.
	Loader stage.LoaderConfig

	// Trainer holds the classifier settings.
	Trainer stage.TrainerConfig
}

// Default builds the standard chain:
//
//	Loader → TextCorrector → DomainFilter → LevelLabeler → FeatureEncoder → Trainer
//
// The order is fixed; labeling before filtering, for example, would label
// postings that are later discarded. The returned Trainer exposes the
// evaluation once the pipeline has run. Stages log to the pipeline's logger.
func Default(cfg ChainConfig, opts ...Option) (*Pipeline, *stage.Trainer) {
	p := New(opts...)
	logOpt := stage.WithLogger(p.logger)

	trainer := stage.NewTrainer(cfg.Trainer, logOpt)
	p.AddStage(stage.NewLoader(cfg.Input, cfg.Loader, logOpt)).
		AddStage(stage.NewTextCorrector(logOpt)).
		AddStage(stage.NewDomainFilter(logOpt)).
		AddStage(stage.NewLevelLabeler(cfg.Columns, logOpt)).
		AddStage(stage.NewFeatureEncoder(cfg.Columns, logOpt)).
		AddStage(trainer)

	return p, trainer
}
