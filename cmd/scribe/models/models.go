// Package modelscmder provides the models command, which lists the models a
// configured provider offers upstream.
package modelscmder

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/scribe/pkg/bootstrap"
	"github.com/papercomputeco/scribe/pkg/cliui"
	"github.com/papercomputeco/scribe/pkg/config"
)

const modelsLongDesc string = `List the models a provider offers.

Queries the provider's model listing endpoint with its configured credentials.
Without an argument the provider of the selected agent is used.

Examples:
  scribe models
  scribe models anthropic
  scribe models --agent vision`

const modelsShortDesc string = "List a provider's models"

type modelsCommander struct {
	agent     string
	configDir string
	debug     bool
}

func NewModelsCmd() *cobra.Command {
	cmder := &modelsCommander{}

	cmd := &cobra.Command{
		Use:   "models [provider]",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			providerID := ""
			if len(args) == 1 {
				providerID = args[0]
			}
			return cmder.run(cmd, providerID)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAgent, &cmder.agent)

	return cmd
}

func (c *modelsCommander) run(cmd *cobra.Command, providerID string) error {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAgent})

	env, err := bootstrap.Load(bootstrap.Options{
		ConfigDir: c.configDir,
		Debug:     c.debug,
		Viper:     v,
		LogWriter: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = env.Logger.Sync() }()

	if providerID == "" {
		agent, err := env.Config.Agent("")
		if err != nil {
			return err
		}
		providerID = agent.ProviderID
	}

	p, err := env.Config.Provider(providerID)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var models []string
	err = cliui.Step(cmd.ErrOrStderr(), fmt.Sprintf("Listing models for %s", p.ID), func() error {
		models, err = env.Orchestrator.ListModels(ctx, p)
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range models {
		fmt.Fprintln(out, m)
	}
	return nil
}
