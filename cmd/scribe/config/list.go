package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/scribe/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays all configuration keys and their current values from the
config.toml file stored in the .scribe/ directory, followed by the
configured providers and agents.

Examples:
  scribe config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd, configDir)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Using config file: %s\n\n", target)
	} else {
		fmt.Fprint(cmd.OutOrStdout(), "No config file found. Using default config.\n\n")
	}

	keys := config.ValidConfigKeys()

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range keys {
		if len(k) > maxLen {
			maxLen = len(k)
		}
	}

	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}

		if value == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%-*s = <not set>\n", maxLen, key)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%-*s = %q\n", maxLen, key, value)
		}
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return err
	}

	if len(cfg.Providers) > 0 {
		fmt.Fprint(cmd.OutOrStdout(), "\nProviders:\n")
		for _, p := range cfg.Providers {
			snap, err := cfg.Provider(p.ID)
			if err != nil {
				return err
			}
			key := "no api key"
			if snap.APIKey != "" {
				key = "api key set"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s  %s  (%s)\n", snap.ID, snap.Kind, snap.BaseURL, key)
		}
	}

	if len(cfg.Agents) > 0 {
		fmt.Fprint(cmd.OutOrStdout(), "\nAgents:\n")
		for _, a := range cfg.Agents {
			mark := " "
			if a.ID == cfg.Defaults.Agent {
				mark = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s/%s\n", mark, a.ID, a.Provider, a.Model)
		}
	}

	return nil
}
