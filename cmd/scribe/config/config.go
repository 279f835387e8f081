// Package configcmder provides the config command for managing persistent
// scribe configuration stored in the .scribe/ directory.
package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/scribe/pkg/cliui"
)

const configLongDesc string = `Manage persistent scribe configuration.

Configuration is stored as config.toml in the .scribe/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  logging.debug, logging.format,
  api.listen,
  image.host_endpoint, image.hosted_gateways,
  defaults.agent

Providers and agents are tables; edit config.toml directly to change them,
or start from a preset with "scribe init --preset".

Use subcommands to get, set, or list configuration values:
  scribe config set <key> <value>    Set a configuration value
  scribe config get <key>            Get a configuration value
  scribe config list                 List all configuration values

Examples:
  scribe config set defaults.agent tutor
  scribe config set image.hosted_gateways dashscope.aliyuncs.com,api.example.com
  scribe config get api.listen
  scribe config list`

const configShortDesc string = "Manage persistent scribe configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// printTarget prints which config file is in use.
func printTarget(cmd *cobra.Command, target string) {
	if target != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
