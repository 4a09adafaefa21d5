package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/joblevel/internal/config"
	"github.com/nao1215/joblevel/internal/model"
	"github.com/nao1215/joblevel/internal/report"
)

// writeFile creates a file with the given content in a fresh temp directory.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	return path
}

// emptyConfig returns an empty config file so tests do not pick up a
// .joblevel from the working or home directory.
func emptyConfig(t *testing.T) string {
	t.Helper()
	return writeFile(t, ".joblevel", "")
}

// trainingCSV returns twelve postings per level plus two postings outside
// software development.
func trainingCSV() string {
	var sb strings.Builder
	sb.WriteString("Название;Опыт работы;ЗП;Город\n")
	cities := []string{"Москва", "Казань", "Пермь"}
	for i := range 12 {
		city := cities[i%3]
		fmt.Fprintf(&sb, "Junior Python developer;без опыта;%d;%s\n", 50000+i*1000, city)
		fmt.Fprintf(&sb, "Java разработчик;3 года;%d;%s\n", 150000+i*1000, city)
		fmt.Fprintf(&sb, "Senior Go developer;6 лет;%d;%s\n", 300000+i*1000, city)
	}
	sb.WriteString("Бухгалтер;5 лет;90000;Москва\n")
	sb.WriteString("HR manager;2 года;80000;Казань\n")
	return sb.String()
}

// executeRun runs the run command with args and returns stdout and the error.
func executeRun(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRunCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

// TestNewRunCmd tests the run command creation.
func TestNewRunCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRunCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "run <postings.csv>" {
			t.Errorf("expected use 'run <postings.csv>', got %q", cmd.Use)
		}
		if cmd.Args == nil {
			t.Error("expected Args validator")
		}
	})

	t.Run("has flags", func(t *testing.T) {
		t.Parallel()

		shorthands := map[string]string{
			"config":            "c",
			"delimiter":         "d",
			"encoding":          "e",
			"json":              "j",
			"markdown":          "m",
			"output":            "o",
			"export":            "x",
			"experience-column": "",
			"salary-column":     "",
			"trees":             "",
			"max-depth":         "",
			"test-size":         "",
			"seed":              "",
			"min-rows":          "",
			"no-history":        "",
			"db-dir":            "",
		}
		for name, short := range shorthands {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				t.Errorf("expected %s flag", name)
				continue
			}
			if flag.Shorthand != short {
				t.Errorf("flag %s: expected shorthand %q, got %q", name, short, flag.Shorthand)
			}
		}
	})

	t.Run("trainer flag defaults", func(t *testing.T) {
		t.Parallel()
		if got := cmd.Flags().Lookup("trees").DefValue; got != "300" {
			t.Errorf("trees default = %s, want 300", got)
		}
		if got := cmd.Flags().Lookup("seed").DefValue; got != "42" {
			t.Errorf("seed default = %s, want 42", got)
		}
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"--config", emptyConfig(t)}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"jobs.csv"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Input != "jobs.csv" {
			t.Errorf("Input = %q, want jobs.csv", cfg.Input)
		}
		if !cfg.SaveToDB {
			t.Error("expected history to be enabled by default")
		}
		if cfg.DBDir != config.XDGDataDir() {
			t.Errorf("DBDir = %q, want %q", cfg.DBDir, config.XDGDataDir())
		}
		if cfg.Trainer.Trees != 300 || cfg.Trainer.Seed != 42 {
			t.Errorf("unexpected trainer defaults %+v", cfg.Trainer)
		}
	})

	t.Run("flags override config file", func(t *testing.T) {
		t.Parallel()

		configFile := writeFile(t, ".joblevel", `loader:
  delimiter: ";"
  encoding: windows-1251
trainer:
  trees: 50
  seed: 7
columns:
  salary: Зарплата
`)

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{
			"--config", configFile,
			"--trees", "10",
			"--delimiter", "tab",
			"--experience-column", "Стаж",
			"--no-history",
			"--db-dir", "/tmp/joblevel-db",
		}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"jobs.csv"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.Trainer.Trees != 10 {
			t.Errorf("Trees = %d, want flag value 10", cfg.Trainer.Trees)
		}
		if cfg.Trainer.Seed != 7 {
			t.Errorf("Seed = %d, want config value 7", cfg.Trainer.Seed)
		}
		if cfg.Loader.Delimiter != '\t' {
			t.Errorf("Delimiter = %q, want tab", cfg.Loader.Delimiter)
		}
		if cfg.Loader.Encoding != "windows-1251" {
			t.Errorf("Encoding = %q, want windows-1251", cfg.Loader.Encoding)
		}
		if cfg.Columns.Experience != "Стаж" || cfg.Columns.Salary != "Зарплата" {
			t.Errorf("unexpected columns %+v", cfg.Columns)
		}
		if cfg.SaveToDB {
			t.Error("expected --no-history to disable the database")
		}
		if cfg.DBDir != "/tmp/joblevel-db" {
			t.Errorf("DBDir = %q", cfg.DBDir)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewRunCmd()
		missing := filepath.Join(t.TempDir(), "nope.yaml")
		if err := cmd.ParseFlags([]string{"--config", missing}); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd, []string{"jobs.csv"}); !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"--config", writeFile(t, ".joblevel", "trainer:\n  tress: 5\n")}); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd, []string{"jobs.csv"}); err == nil {
			t.Error("expected error for unknown key")
		}
	})

	t.Run("invalid delimiter flag", func(t *testing.T) {
		t.Parallel()

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"--config", emptyConfig(t), "--delimiter", ";;"}); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd, []string{"jobs.csv"}); !errors.Is(err, config.ErrInvalidDelimiter) {
			t.Errorf("expected ErrInvalidDelimiter, got %v", err)
		}
	})
}

func TestRunCmd(t *testing.T) {
	t.Parallel()

	t.Run("text report for a trained model", func(t *testing.T) {
		t.Parallel()

		input := writeFile(t, "jobs.csv", trainingCSV())
		out, err := executeRun(t, "--config", emptyConfig(t), "--no-history", "--trees", "5", input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, want := range []string{"JOBLEVEL RUN REPORT", "Final Rows:     36", "Accuracy:", "Confusion matrix"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected report to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("json report", func(t *testing.T) {
		t.Parallel()

		input := writeFile(t, "jobs.csv", trainingCSV())
		out, err := executeRun(t, "--config", emptyConfig(t), "--no-history", "--trees", "5", "--json", input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got report.JSONReport
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if !got.Succeeded || got.Report == nil {
			t.Fatalf("expected successful report, got %+v", got)
		}
		r := got.Report
		if len(r.Stages) != 6 {
			t.Errorf("expected 6 stage stats, got %d", len(r.Stages))
		}
		if len(r.Fingerprint) != 64 {
			t.Errorf("expected hex SHA3-256 fingerprint, got %q", r.Fingerprint)
		}
		if r.Stages[2].RowsIn != 38 || r.Stages[2].RowsOut != 36 {
			t.Errorf("domain filter %d -> %d, want 38 -> 36", r.Stages[2].RowsIn, r.Stages[2].RowsOut)
		}
		eval := r.Evaluation
		if eval == nil || eval.Skipped {
			t.Fatalf("expected a fitted evaluation, got %+v", eval)
		}
		if eval.TrainSize+eval.TestSize != 36 {
			t.Errorf("split sizes %d + %d, want 36", eval.TrainSize, eval.TestSize)
		}
		if eval.Distribution["Junior"] != 12 || eval.Distribution["Middle"] != 12 || eval.Distribution["Senior"] != 12 {
			t.Errorf("unexpected distribution %v", eval.Distribution)
		}
	})

	t.Run("markdown report to file and export", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		reportFile := filepath.Join(dir, "out", "report.md")
		exportFile := filepath.Join(dir, "out", "encoded.csv")
		input := writeFile(t, "jobs.csv", trainingCSV())

		out, err := executeRun(t, "--config", emptyConfig(t), "--no-history", "--trees", "5",
			"--markdown", "-o", reportFile, "--export", exportFile, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "" {
			t.Errorf("expected nothing on stdout, got %q", out)
		}

		md, err := os.ReadFile(reportFile)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(md), "# Job Level Run Report") {
			t.Error("expected Markdown report")
		}

		exported, err := os.ReadFile(exportFile)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(string(exported)), "\n")
		if len(lines) != 37 {
			t.Fatalf("expected header and 36 rows, got %d lines", len(lines))
		}
		for _, col := range []string{model.TargetColumn, "experience_months", "salary_feature"} {
			if !strings.Contains(lines[0], col) {
				t.Errorf("export header %q lacks %s", lines[0], col)
			}
		}
	})

	t.Run("records history", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		input := writeFile(t, "jobs.csv", "Название,Опыт работы,ЗП\nPython developer,3 года,100000\n")
		if _, err := executeRun(t, "--config", emptyConfig(t), "--db-dir", dbDir, input); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		runs := listHistory(t, dbDir)
		if len(runs) != 1 {
			t.Fatalf("expected 1 stored run, got %d", len(runs))
		}
		if runs[0].FinalRows != 1 || runs[0].Accuracy != nil {
			t.Errorf("unexpected summary %+v", runs[0])
		}
	})

	t.Run("missing input still reports", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		missing := filepath.Join(t.TempDir(), "missing.csv")
		out, err := executeRun(t, "--config", emptyConfig(t), "--db-dir", dbDir, missing)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("expected fs.ErrNotExist, got %v", err)
		}
		if !strings.Contains(out, "FAILED - ") {
			t.Errorf("expected failure status in report, got:\n%s", out)
		}

		runs := listHistory(t, dbDir)
		if len(runs) != 1 || runs[0].Error == "" {
			t.Errorf("expected failed run in history, got %+v", runs)
		}
	})

	t.Run("failed export still reports and records history", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		exportDir := t.TempDir()
		input := writeFile(t, "jobs.csv", trainingCSV())

		out, err := executeRun(t, "--config", emptyConfig(t), "--db-dir", dbDir, "--trees", "5",
			"--export", exportDir, input)
		if err == nil {
			t.Fatal("expected error when the export path is a directory")
		}
		if !strings.Contains(out, "JOBLEVEL RUN REPORT") || !strings.Contains(out, "FAILED - ") {
			t.Errorf("expected failure report on stdout, got:\n%s", out)
		}

		runs := listHistory(t, dbDir)
		if len(runs) != 1 {
			t.Fatalf("expected 1 stored run, got %d", len(runs))
		}
		if !strings.Contains(runs[0].Error, "failed to create output file") {
			t.Errorf("unexpected stored error %q", runs[0].Error)
		}
		if runs[0].FinalRows != 36 {
			t.Errorf("expected the trained rows to be recorded, got %d", runs[0].FinalRows)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()

		_, err := executeRun(t, "--config", emptyConfig(t), "--json", "--markdown", "jobs.csv")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("requires input argument", func(t *testing.T) {
		t.Parallel()

		if _, err := executeRun(t); err == nil {
			t.Error("expected error without input")
		}
	})
}
