// Package config provides the configuration of a joblevel run: input and
// report options, column names, loader settings and classifier
// hyperparameters. Values come from defaults, an optional .joblevel YAML
// file and command line flags, in increasing order of precedence.
package config
