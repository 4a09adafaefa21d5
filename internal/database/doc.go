// Package database provides SQLite-based storage for joblevel run history.
//
// RunDB stores one record per pipeline run: the input path, a SHA3-256
// fingerprint of the input file, timing, the final dataset shape, the
// classifier accuracy and the complete run report as JSON. Intermediate
// datasets are never stored; stages hand their results to each other in
// memory only.
//
// SQLite is used through modernc.org/sqlite, a CGO-free driver, so the
// history is a single file in the XDG data directory.
package database
