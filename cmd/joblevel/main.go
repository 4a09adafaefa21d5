// Package main provides the entry point for the joblevel CLI.
//
// joblevel reads a CSV export of job postings, keeps the software
// development postings, labels each one Junior, Middle or Senior, encodes
// the features and evaluates a random forest classifier on them.
//
// Usage:
//
//	joblevel run postings.csv
//	joblevel history
//
// See --help for all available options.
package main

// main is the entry point for joblevel.
func main() {
	Execute()
}
