// Package dataset defines the tabular value that flows through the joblevel
// pipeline.
//
// A Dataset is an ordered set of named columns whose cells are aligned by row
// position. Every column always has the same length; constructors and
// operations that would break that rule return ErrRowMisaligned instead.
//
// Datasets are immutable values. Filter, WithColumn and Drop return a new
// Dataset and leave the receiver untouched, so a stage can keep a reference
// to its input while producing its output. Unchanged column slices are shared
// between the old and the new value, and no operation ever writes into a
// slice after construction.
//
// Semantically special columns (experience and salary descriptions) are
// located with FindColumn, a case-insensitive substring match on column
// names, or named explicitly through a ColumnSet.
package dataset
