// Package pipeline runs the fixed sequence of dataset transformation stages.
//
// Each Stage consumes a dataset and returns a new one. The Pipeline holds the
// stages in an ordered slice and calls them in a loop, handing each stage the
// result of the previous one. The first structural error stops the run; no
// later stage executes and the error is returned wrapped in a StageError.
//
// Stages run one after another on the calling goroutine. The context is
// checked before every stage so an interrupted run stops at the next stage
// boundary.
//
// Default assembles the production order:
//
//	Loader → TextCorrector → DomainFilter → LevelLabeler → FeatureEncoder → Trainer
//
// Labeling depends on filtering having removed unrelated postings, and the
// encoder depends on the label column, so the order is part of the contract.
package pipeline
