package config

import (
	"fmt"
	"unicode/utf8"

	"github.com/nao1215/joblevel/internal/dataset"
	"github.com/nao1215/joblevel/internal/model"
)

// File represents the structure of the .joblevel configuration file.
type File struct {
	// Columns names the experience and salary columns.
	Columns dataset.ColumnSet `yaml:"columns,omitempty"`

	// Loader holds input parsing settings.
	Loader LoaderFile `yaml:"loader,omitempty"`

	// Trainer holds classifier settings.
	Trainer TrainerFile `yaml:"trainer,omitempty"`
}

// LoaderFile is the loader section of the configuration file.
type LoaderFile struct {
	// Delimiter is a single character, or "tab".
	Delimiter string `yaml:"delimiter,omitempty"`

	// Encoding is a charset label such as "windows-1251".
	Encoding string `yaml:"encoding,omitempty"`
}

// TrainerFile is the trainer section of the configuration file.
// Pointer fields distinguish an explicit zero from an absent value.
type TrainerFile struct {
	Trees          int                `yaml:"trees,omitempty"`
	MaxDepth       *int               `yaml:"maxDepth,omitempty"`
	MinSamplesLeaf int                `yaml:"minSamplesLeaf,omitempty"`
	MaxFeatures    *int               `yaml:"maxFeatures,omitempty"`
	TestSize       float64            `yaml:"testSize,omitempty"`
	Seed           *uint64            `yaml:"seed,omitempty"`
	MinRows        *int               `yaml:"minRows,omitempty"`
	Bootstrap      *bool              `yaml:"bootstrap,omitempty"`
	ClassWeights   map[string]float64 `yaml:"classWeights,omitempty"`
}

// Apply copies every value set in the file onto cfg.
func (f *File) Apply(cfg *Config) error {
	if f.Columns.Experience != "" {
		cfg.Columns.Experience = f.Columns.Experience
	}
	if f.Columns.Salary != "" {
		cfg.Columns.Salary = f.Columns.Salary
	}

	if f.Loader.Delimiter != "" {
		r, err := ParseDelimiter(f.Loader.Delimiter)
		if err != nil {
			return err
		}
		cfg.Loader.Delimiter = r
	}
	if f.Loader.Encoding != "" {
		cfg.Loader.Encoding = f.Loader.Encoding
	}

	t := f.Trainer
	if t.Trees != 0 {
		cfg.Trainer.Trees = t.Trees
	}
	if t.MaxDepth != nil {
		cfg.Trainer.MaxDepth = *t.MaxDepth
	}
	if t.MinSamplesLeaf != 0 {
		cfg.Trainer.MinSamplesLeaf = t.MinSamplesLeaf
	}
	if t.MaxFeatures != nil {
		cfg.Trainer.MaxFeatures = *t.MaxFeatures
	}
	if t.TestSize != 0 {
		cfg.Trainer.TestSize = t.TestSize
	}
	if t.Seed != nil {
		cfg.Trainer.Seed = *t.Seed
	}
	if t.MinRows != nil {
		cfg.Trainer.MinRows = *t.MinRows
	}
	if t.Bootstrap != nil {
		cfg.Trainer.NoBootstrap = !*t.Bootstrap
	}
	if len(t.ClassWeights) > 0 {
		weights := make(map[model.Level]float64, len(t.ClassWeights))
		for name, w := range t.ClassWeights {
			level, err := model.ParseLevel(name)
			if err != nil {
				return fmt.Errorf("%v: %w", err, ErrInvalidClassWeight)
			}
			weights[level] = w
		}
		cfg.Trainer.ClassWeights = weights
	}
	return nil
}

// ParseDelimiter converts a delimiter setting to a rune.
// "tab" and `\t` stand for the tab character.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidDelimiter)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if err := validateDelimiter(r); err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	return r, nil
}
