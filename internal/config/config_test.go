package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/joblevel/internal/dataset"
	"github.com/nao1215/joblevel/internal/model"
)

// TestNewConfig verifies that NewConfig returns the documented defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default trainer settings", func(t *testing.T) {
		t.Parallel()

		tr := cfg.Trainer
		if tr.Trees != 300 || tr.MaxDepth != 15 || tr.MinSamplesLeaf != 2 {
			t.Errorf("unexpected forest defaults: %+v", tr)
		}
		if tr.TestSize != 0.2 || tr.Seed != 42 || tr.MinRows != 10 {
			t.Errorf("unexpected split defaults: %+v", tr)
		}
		want := map[model.Level]float64{model.LevelJunior: 12, model.LevelMiddle: 1, model.LevelSenior: 4}
		if diff := cmp.Diff(want, tr.ClassWeights); diff != "" {
			t.Errorf("class weights mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("history is saved by default", func(t *testing.T) {
		t.Parallel()

		if !cfg.SaveToDB || cfg.DBDir == "" {
			t.Errorf("expected database defaults, got SaveToDB=%v DBDir=%q", cfg.SaveToDB, cfg.DBDir)
		}
	})

	t.Run("columns are discovered by default", func(t *testing.T) {
		t.Parallel()

		if cfg.Columns != (dataset.ColumnSet{}) {
			t.Errorf("expected empty column set, got %+v", cfg.Columns)
		}
	})
}

// TestConfigValidate tests each validation rule in isolation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Input = "jobs.csv"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "no input", modify: func(c *Config) { c.Input = "" }, wantErr: ErrNoInput},
		{
			name:    "both report formats",
			modify:  func(c *Config) { c.JSONReport, c.MarkdownReport = true, true },
			wantErr: ErrConflictingReportFormats,
		},
		{name: "quote delimiter", modify: func(c *Config) { c.Loader.Delimiter = '"' }, wantErr: ErrInvalidDelimiter},
		{name: "zero trees", modify: func(c *Config) { c.Trainer.Trees = 0 }, wantErr: ErrInvalidTrees},
		{name: "negative depth", modify: func(c *Config) { c.Trainer.MaxDepth = -1 }, wantErr: ErrInvalidMaxDepth},
		{name: "unlimited depth", modify: func(c *Config) { c.Trainer.MaxDepth = 0 }},
		{name: "zero leaf", modify: func(c *Config) { c.Trainer.MinSamplesLeaf = 0 }, wantErr: ErrInvalidMinSamplesLeaf},
		{name: "negative features", modify: func(c *Config) { c.Trainer.MaxFeatures = -2 }, wantErr: ErrInvalidMaxFeatures},
		{name: "test size zero", modify: func(c *Config) { c.Trainer.TestSize = 0 }, wantErr: ErrInvalidTestSize},
		{name: "test size one", modify: func(c *Config) { c.Trainer.TestSize = 1 }, wantErr: ErrInvalidTestSize},
		{name: "negative min rows", modify: func(c *Config) { c.Trainer.MinRows = -1 }, wantErr: ErrInvalidMinRows},
		{
			name:    "zero class weight",
			modify:  func(c *Config) { c.Trainer.ClassWeights = map[model.Level]float64{model.LevelJunior: 0} },
			wantErr: ErrInvalidClassWeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestConfigChain tests the conversion to pipeline settings.
func TestConfigChain(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Input = "jobs.csv"
	cfg.Columns.Salary = "Зарплата"
	cfg.Loader.Delimiter = ';'

	chain := cfg.Chain()
	if chain.Input != "jobs.csv" || chain.Columns.Salary != "Зарплата" || chain.Loader.Delimiter != ';' {
		t.Errorf("unexpected chain config: %+v", chain)
	}
	if chain.Trainer.Trees != cfg.Trainer.Trees {
		t.Errorf("trainer settings not copied")
	}
}

// TestFileApply tests merging the configuration file onto a Config.
func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("set values override defaults", func(t *testing.T) {
		t.Parallel()

		depth, seed, minRows := 0, uint64(7), 3
		f := &File{
			Columns: dataset.ColumnSet{Experience: "Стаж"},
			Loader:  LoaderFile{Delimiter: "tab", Encoding: "windows-1251"},
			Trainer: TrainerFile{
				Trees:        50,
				MaxDepth:     &depth,
				Seed:         &seed,
				MinRows:      &minRows,
				ClassWeights: map[string]float64{"Junior": 2},
			},
		}

		cfg := NewConfig()
		if err := f.Apply(cfg); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		if cfg.Columns.Experience != "Стаж" || cfg.Columns.Salary != "" {
			t.Errorf("unexpected columns: %+v", cfg.Columns)
		}
		if cfg.Loader.Delimiter != '\t' || cfg.Loader.Encoding != "windows-1251" {
			t.Errorf("unexpected loader config: %+v", cfg.Loader)
		}
		if cfg.Trainer.Trees != 50 || cfg.Trainer.MaxDepth != 0 || cfg.Trainer.Seed != 7 || cfg.Trainer.MinRows != 3 {
			t.Errorf("unexpected trainer config: %+v", cfg.Trainer)
		}
		if cfg.Trainer.MinSamplesLeaf != 2 {
			t.Errorf("unset value should keep default, got %d", cfg.Trainer.MinSamplesLeaf)
		}
		if diff := cmp.Diff(map[model.Level]float64{model.LevelJunior: 2}, cfg.Trainer.ClassWeights); diff != "" {
			t.Errorf("class weights mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("bootstrap can be switched off", func(t *testing.T) {
		t.Parallel()

		off := false
		cfg := NewConfig()
		if cfg.Trainer.NoBootstrap {
			t.Fatal("bootstrap should be on by default")
		}
		f := &File{Trainer: TrainerFile{Bootstrap: &off}}
		if err := f.Apply(cfg); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if !cfg.Trainer.NoBootstrap {
			t.Error("expected bootstrap: false to disable bootstrap sampling")
		}
	})

	t.Run("unknown level is rejected", func(t *testing.T) {
		t.Parallel()

		f := &File{Trainer: TrainerFile{ClassWeights: map[string]float64{"Guru": 1}}}
		if err := f.Apply(NewConfig()); !errors.Is(err, ErrInvalidClassWeight) {
			t.Errorf("expected ErrInvalidClassWeight, got %v", err)
		}
	})

	t.Run("bad delimiter is rejected", func(t *testing.T) {
		t.Parallel()

		f := &File{Loader: LoaderFile{Delimiter: ";;"}}
		if err := f.Apply(NewConfig()); !errors.Is(err, ErrInvalidDelimiter) {
			t.Errorf("expected ErrInvalidDelimiter, got %v", err)
		}
	})
}

// TestParseDelimiter tests delimiter settings.
func TestParseDelimiter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{in: ",", want: ','},
		{in: ";", want: ';'},
		{in: "|", want: '|'},
		{in: "tab", want: '\t'},
		{in: `\t`, want: '\t'},
		{in: `"`, wantErr: true},
		{in: "ab", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDelimiter(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDelimiter) {
					t.Errorf("expected ErrInvalidDelimiter, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseDelimiter(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.joblevel")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `columns:
  experience: "Опыт работы"
  salary: "ЗП"
loader:
  delimiter: ";"
trainer:
  trees: 100
  maxDepth: 0
  testSize: 0.25
  classWeights:
    Junior: 6
    Senior: 2
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Columns.Experience != "Опыт работы" || cfg.Columns.Salary != "ЗП" {
			t.Errorf("unexpected columns: %+v", cfg.Columns)
		}
		if cfg.Loader.Delimiter != ";" {
			t.Errorf("unexpected delimiter %q", cfg.Loader.Delimiter)
		}
		if cfg.Trainer.Trees != 100 || cfg.Trainer.TestSize != 0.25 {
			t.Errorf("unexpected trainer section: %+v", cfg.Trainer)
		}
		if cfg.Trainer.MaxDepth == nil || *cfg.Trainer.MaxDepth != 0 {
			t.Errorf("expected explicit zero max depth, got %v", cfg.Trainer.MaxDepth)
		}
		if cfg.Trainer.ClassWeights["Junior"] != 6 {
			t.Errorf("unexpected class weights: %v", cfg.Trainer.ClassWeights)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte("trainer:\n  tress: 10\n"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for misspelled key")
		}
	})

	t.Run("empty file is valid", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, nil, 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Trainer.Trees != 0 {
			t.Errorf("expected zero-valued file, got %+v", cfg)
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("columns: {}"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if filepath.Base(XDGDataDir()) != AppName {
		t.Errorf("unexpected XDG data dir %q", XDGDataDir())
	}
	if filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("unexpected XDG config dir %q", XDGConfigDir())
	}
}
