// Package stage implements the fixed stages of the joblevel pipeline.
//
// Stages run in this order:
//
//	Loader → TextCorrector → DomainFilter → LevelLabeler → FeatureEncoder → Trainer
//
// Each stage satisfies pipeline.Stage: it receives the dataset produced by
// the previous stage, never modifies it, and returns a new one. Stages
// report structural problems (a required column is missing, the input file
// cannot be parsed) as errors. Problems inside individual cells, such as an
// unparseable salary, resolve to a default value and never fail a stage.
//
// # Column discovery
//
// The experience and salary columns are located through dataset.ColumnSet.
// Explicit names win; otherwise the first column whose name contains
// "опыт" or "ЗП" (ignoring case) is used. When no column matches, the
// corresponding feature is not extracted.
package stage
