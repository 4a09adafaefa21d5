// Package model defines the data structures shared across joblevel.
//
// This package contains the following main types:
//   - Level: the Junior/Middle/Senior classification target
//   - RunReport: the record of one pipeline run, including per-stage stats
//   - Evaluation: the classifier quality metrics produced by the trainer
//
// Models live in their own package so that pipeline, stage, report and
// database can share them without import cycles. All of them serialize to
// JSON for report output and database storage.
package model
