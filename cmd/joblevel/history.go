package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/joblevel/internal/config"
	"github.com/nao1215/joblevel/internal/database"
)

// defaultHistoryLimit caps the number of runs listed when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// It lists runs stored in the history database or shows one of them in full.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous runs",
		Long: `History lists runs recorded by 'joblevel run', newest first.

Every run stores a SHA3-256 fingerprint of its input, so runs on the same
file can be compared even after the file was renamed or moved.

Examples:
  # List the latest runs
  joblevel history

  # Show the full report of run 5
  joblevel history --id 5

  # List runs on the same input as postings.csv
  joblevel history --input postings.csv

  # Output history in JSON format
  joblevel history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("id", "i", 0,
		"Show the full report of the run with this ID")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 for all)")
	cmd.Flags().StringP("fingerprint", "f", "",
		"List only runs whose input has this fingerprint")
	cmd.Flags().String("input", "",
		"List only runs on the same input as this file")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format (mutually exclusive with --json)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	if limit < 0 {
		return errors.New("limit must not be negative")
	}
	fingerprint, err := flags.GetString("fingerprint")
	if err != nil {
		return err
	}
	input, err := flags.GetString("input")
	if err != nil {
		return err
	}
	if fingerprint != "" && input != "" {
		return errors.New("--fingerprint and --input cannot be used together")
	}

	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	// Validate arguments before opening database
	if input != "" {
		fingerprint, err = database.FingerprintFile(input)
		if err != nil {
			return fmt.Errorf("failed to fingerprint %s: %w", input, err)
		}
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()
	if id != 0 {
		runReport, err := db.GetRun(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load run %d: %w", id, err)
		}
		if runReport == nil {
			return fmt.Errorf("run %d not found (use 'joblevel history' to list runs)", id)
		}
		_, err = newWriter(cfg, out).Write(runReport)
		return err
	}

	runs, err := db.ListRuns(ctx, database.ListFilter{
		Fingerprint: fingerprint,
		Limit:       limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	_, err = newWriter(cfg, out).WriteHistory(runs)
	return err
}
