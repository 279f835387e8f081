// Package initcmder provides the init command for initializing a local .scribe
// directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/scribe/pkg/config"
)

const (
	dirName = ".scribe"
)

const initLongDesc string = `Initialize a new .scribe/ directory in the current working directory.

Creates a local .scribe/ directory that takes precedence over the default
~/.scribe/ directory for configuration, the last run record, and .env files.

With --preset, a config.toml holding one provider and a "tutor" agent is
written as well. API keys are read from the environment (OPENAI_API_KEY,
ANTHROPIC_API_KEY, GEMINI_API_KEY) unless set in the file.

Examples:
  scribe init
  scribe init --preset anthropic`

const initShortDesc string = "Initialize a local .scribe/ directory"

type initCommander struct {
	preset string
	force  bool
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.preset, "preset", "p", "",
		fmt.Sprintf("Write a starter config.toml (%s)", strings.Join(config.ValidPresetNames(), ", ")))
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Overwrite an existing config.toml when using --preset")

	return cmd
}

func (c *initCommander) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .scribe directory: %w", err)
		}
		fmt.Fprintf(out, "Initialized .scribe directory: %s\n", dir)
	}

	if c.preset == "" {
		return nil
	}

	cfg, err := config.PresetConfig(c.preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !c.force {
		if _, err := os.Stat(cfger.GetTarget()); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfger.GetTarget())
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking config: %w", err)
		}
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %s preset: %s\n", c.preset, cfger.GetTarget())
	return nil
}
