// Package scribecmder
package scribecmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/scribe/cmd/scribe/ask"
	configcmder "github.com/papercomputeco/scribe/cmd/scribe/config"
	initcmder "github.com/papercomputeco/scribe/cmd/scribe/init"
	lastcmder "github.com/papercomputeco/scribe/cmd/scribe/last"
	modelscmder "github.com/papercomputeco/scribe/cmd/scribe/models"
	servecmder "github.com/papercomputeco/scribe/cmd/scribe/serve"
	versioncmder "github.com/papercomputeco/scribe/cmd/version"
)

const scribeLongDesc string = `Scribe runs study requests against any configured LLM provider and
recovers strict JSON from whatever the model sends back.

Make requests using:
  scribe questions   Generate an exact number of practice questions
  scribe pages       Explain material as titled pages
  scribe explain     Explain a question or image in free form
  scribe probe       Send raw text and inspect the reply

Run services using:
  scribe serve       Run the HTTP API and MCP server`

const scribeShortDesc string = "Scribe - multi-provider study assistant"

func NewScribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "scribe",
		Short:        scribeShortDesc,
		Long:         scribeLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .scribe/ config directory")

	// Add subcommands
	cmd.AddCommand(askcmder.NewQuestionsCmd())
	cmd.AddCommand(askcmder.NewPagesCmd())
	cmd.AddCommand(askcmder.NewExplainCmd())
	cmd.AddCommand(askcmder.NewProbeCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(lastcmder.NewLastCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
