package main

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/joblevel/internal/config"
)

//go:embed templates/joblevel.yaml
var configTemplate embed.FS

const templatePath = "templates/joblevel.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter joblevel settings file",
		Long: `Write the built-in settings template to disk so a run can be tuned
without long flag lists. Every key in the template mirrors the defaults
that joblevel run uses when no settings file is found.

Examples:
  joblevel init                   # writes ./.joblevel
  joblevel init -o vacancies.yaml # writes to another path
  joblevel init -f                # replaces an existing file`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "Where to write the settings file")
	cmd.Flags().BoolP("force", "f", false, "Replace the file if it is already there")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeConfigTemplate(path, force); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n"+
		"Set the experience and salary columns, the input charset and the "+
		"forest parameters there before the next run.\n", path)
	return nil
}

// writeConfigTemplate stores the embedded template at path with owner-only
// permissions. Without force an existing file is left untouched.
func writeConfigTemplate(path string, force bool) error {
	body, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(filepath.Clean(path), flags, 0600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
	}
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return f.Close()
}
