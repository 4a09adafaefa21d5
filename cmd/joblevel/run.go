package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/joblevel/internal/config"
	"github.com/nao1215/joblevel/internal/database"
	"github.com/nao1215/joblevel/internal/dataset"
	"github.com/nao1215/joblevel/internal/model"
	"github.com/nao1215/joblevel/internal/pipeline"
	"github.com/nao1215/joblevel/internal/report"
	"github.com/nao1215/joblevel/internal/stage"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <postings.csv>",
		Short: "Label job postings and evaluate a seniority classifier",
		Long: `Run processes a CSV export of job postings through the full chain:

  loader → text-corrector → domain-filter → level-labeler → feature-encoder → trainer

- The loader detects the delimiter and the character set
- Garbled Cyrillic text (mojibake) is repaired
- Only software development postings are kept
- Each posting is labeled Junior, Middle or Senior
- Experience and salary are turned into numbers, text is label-encoded
- A random forest is trained and evaluated on a stratified split

Examples:
  # Process a file and print a text report
  joblevel run postings.csv

  # Write a Markdown report and export the encoded dataset
  joblevel run --markdown -o report.md --export encoded.csv postings.csv

  # Legacy Windows export with explicit column names
  joblevel run -e windows-1251 --experience-column "Опыт" --salary-column "ЗП" postings.csv

  # Use a custom configuration file
  joblevel run -c myconfig.yaml postings.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runRunCmd,
	}

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .joblevel in current or home directory)")

	// Input flags
	cmd.Flags().StringP("delimiter", "d", "",
		"Field delimiter: one character or \"tab\" (default: auto-detect)")
	cmd.Flags().StringP("encoding", "e", "",
		"Input character set, e.g. windows-1251 (default: auto-detect)")
	cmd.Flags().String("experience-column", "",
		"Name of the experience column (default: first column containing \"опыт\")")
	cmd.Flags().String("salary-column", "",
		"Name of the salary column (default: first column containing \"ЗП\")")

	// Trainer flags
	defaults := stage.DefaultTrainerConfig()
	cmd.Flags().Int("trees", defaults.Trees, "Number of trees in the forest")
	cmd.Flags().Int("max-depth", defaults.MaxDepth, "Maximum tree depth (0 for unlimited)")
	cmd.Flags().Float64("test-size", defaults.TestSize, "Share of rows held out for testing")
	cmd.Flags().Uint64("seed", defaults.Seed, "Random seed for the split and the forest")
	cmd.Flags().Int("min-rows", defaults.MinRows, "Minimum labeled rows needed to train")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().StringP("export", "x", "",
		"Write the encoded dataset to a CSV file")

	// History flags
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runPipeline(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig creates a Config from defaults, the config file and flags,
// in that order of increasing priority.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	if len(args) > 0 {
		cfg.Input = args[0]
	}

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit config path must exist; a discovered one is optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := file.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("delimiter") {
		s, err := flags.GetString("delimiter")
		if err != nil {
			return err
		}
		if cfg.Loader.Delimiter, err = config.ParseDelimiter(s); err != nil {
			return err
		}
	}
	if flags.Changed("encoding") {
		if cfg.Loader.Encoding, err = flags.GetString("encoding"); err != nil {
			return err
		}
	}
	if flags.Changed("experience-column") {
		if cfg.Columns.Experience, err = flags.GetString("experience-column"); err != nil {
			return err
		}
	}
	if flags.Changed("salary-column") {
		if cfg.Columns.Salary, err = flags.GetString("salary-column"); err != nil {
			return err
		}
	}

	if flags.Changed("trees") {
		if cfg.Trainer.Trees, err = flags.GetInt("trees"); err != nil {
			return err
		}
	}
	if flags.Changed("max-depth") {
		if cfg.Trainer.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
			return err
		}
	}
	if flags.Changed("test-size") {
		if cfg.Trainer.TestSize, err = flags.GetFloat64("test-size"); err != nil {
			return err
		}
	}
	if flags.Changed("seed") {
		if cfg.Trainer.Seed, err = flags.GetUint64("seed"); err != nil {
			return err
		}
	}
	if flags.Changed("min-rows") {
		if cfg.Trainer.MinRows, err = flags.GetInt("min-rows"); err != nil {
			return err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}
	if cfg.ExportFile, err = flags.GetString("export"); err != nil {
		return err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noHistory

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	return nil
}

// runPipeline executes the standard chain on cfg.Input, then records and
// prints the run report. The report is written even when a stage fails;
// the stage error is returned afterwards.
func runPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	logger.Info("starting run",
		"input", cfg.Input,
		"trees", cfg.Trainer.Trees,
		"saveToDB", cfg.SaveToDB,
	)

	runReport := model.NewRunReport(cfg.Input)
	if fp, err := database.FingerprintFile(cfg.Input); err != nil {
		logger.Warn("failed to fingerprint input", "input", cfg.Input, "error", err)
	} else {
		runReport.Fingerprint = fp
	}

	p, trainer := pipeline.Default(cfg.Chain(),
		pipeline.WithLogger(logger),
		pipeline.WithObserver(runReport.AddStage),
	)

	fmt.Fprintf(stderr, "Processing %s...\n", cfg.Input)
	result, runErr := p.Execute(ctx, dataset.Empty())
	runReport.FinishedAt = time.Now()

	if runErr != nil {
		runReport.Error = runErr.Error()
		logger.Error("run failed", "input", cfg.Input, "error", runErr)
	} else {
		runReport.FinalColumns = result.Names()
		runReport.FinalRows = result.Len()
		runReport.Evaluation = trainer.Evaluation()
		fmt.Fprintf(stderr, "Run completed in %s\n\n", runReport.Duration().Round(time.Millisecond))

		if cfg.ExportFile != "" {
			if err := exportDataset(cfg.ExportFile, result); err != nil {
				runErr = err
				runReport.Error = err.Error()
				logger.Error("export failed", "path", cfg.ExportFile, "error", err)
			} else {
				logger.Info("dataset exported", "path", cfg.ExportFile, "rows", result.Len())
			}
		}
	}

	// A cancelled run is not worth remembering.
	if cfg.SaveToDB && !errors.Is(runErr, context.Canceled) {
		if err := saveRunReport(ctx, cfg.DBDir, runReport, logger); err != nil {
			logger.Error("failed to save run report", "input", cfg.Input, "error", err)
		}
	}

	if err := outputReport(cfg, runReport, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}

// newWriter returns the report writer selected by cfg.
func newWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport writes the run report to cfg.ReportFile or stdout.
func outputReport(cfg *config.Config, runReport *model.RunReport, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		f, err := createOutputFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	_, err := newWriter(cfg, output).Write(runReport)
	return err
}

// exportDataset writes the encoded dataset as CSV.
func exportDataset(path string, d *dataset.Dataset) error {
	f, err := createOutputFile(path)
	if err != nil {
		return err
	}
	if err := stage.WriteCSV(f, d); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export dataset: %w", err)
	}
	return f.Close()
}

// createOutputFile creates or truncates path with owner-only permissions,
// creating parent directories as needed. Exports hold posting contents.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// saveRunReport stores the report in the history database.
func saveRunReport(ctx context.Context, dbDir string, runReport *model.RunReport, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, runReport)
	if err != nil {
		return err
	}

	logger.Info("run saved to database", "id", id, "path", db.Path())
	return nil
}
