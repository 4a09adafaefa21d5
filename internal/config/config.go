package config

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/nao1215/joblevel/internal/dataset"
	"github.com/nao1215/joblevel/internal/pipeline"
	"github.com/nao1215/joblevel/internal/stage"
)

// AppName is the application name used for XDG directory paths.
const AppName = "joblevel"

// Config holds all configuration options for a run.
// It is populated from defaults, the config file and CLI flags, then passed
// down explicitly rather than kept in global state.
type Config struct {
	// Input is the path of the CSV file with job postings.
	Input string

	// Verbose enables debug logging. When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .joblevel is searched for in the current and home directories.
	ConfigFilePath string

	// Columns names the experience and salary columns explicitly.
	// Empty fields fall back to name discovery.
	Columns dataset.ColumnSet

	// Loader controls how the input file is parsed.
	Loader stage.LoaderConfig

	// Trainer holds the classifier hyperparameters.
	Trainer stage.TrainerConfig

	// JSONReport selects JSON report output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// ExportFile is where the encoded dataset is written as CSV.
	// When empty, nothing is exported.
	ExportFile string

	// DBDir is the directory holding the run history database.
	// Defaults to the XDG data directory (~/.local/share/joblevel on Linux).
	DBDir string

	// SaveToDB indicates whether the run is recorded in the history database.
	SaveToDB bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Trainer:  stage.DefaultTrainerConfig(),
		DBDir:    XDGDataDir(),
		SaveToDB: true,
	}
}

// Chain returns the settings of the standard stage chain.
func (c *Config) Chain() pipeline.ChainConfig {
	return pipeline.ChainConfig{
		Input:   c.Input,
		Columns: c.Columns,
		Loader:  c.Loader,
		Trainer: c.Trainer,
	}
}

// XDGDataDir returns the XDG data directory for joblevel.
// On Linux: ~/.local/share/joblevel
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for joblevel.
// On Linux: ~/.config/joblevel
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first problem found.
func (c *Config) Validate() error {
	if c.Input == "" {
		return ErrNoInput
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if err := validateDelimiter(c.Loader.Delimiter); err != nil {
		return err
	}

	t := c.Trainer
	if t.Trees <= 0 {
		return ErrInvalidTrees
	}
	if t.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if t.MinSamplesLeaf <= 0 {
		return ErrInvalidMinSamplesLeaf
	}
	if t.MaxFeatures < 0 {
		return ErrInvalidMaxFeatures
	}
	if t.TestSize <= 0 || t.TestSize >= 1 {
		return ErrInvalidTestSize
	}
	if t.MinRows < 0 {
		return ErrInvalidMinRows
	}
	for _, w := range t.ClassWeights {
		if w <= 0 {
			return ErrInvalidClassWeight
		}
	}
	return nil
}

// validateDelimiter applies the encoding/csv rules for a field separator.
// Zero means auto-detect.
func validateDelimiter(r rune) error {
	switch r {
	case 0:
		return nil
	case '"', '\r', '\n', 0xFFFD:
		return ErrInvalidDelimiter
	}
	return nil
}
