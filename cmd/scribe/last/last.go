// Package lastcmder provides the last command, which shows the outcome of the
// most recent request command.
package lastcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/scribe/pkg/cliui"
	"github.com/papercomputeco/scribe/pkg/dotdir"
)

const lastLongDesc string = `Show the most recent request.

Every questions, pages, explain and probe run records its outcome in
.scribe/last_run.json: the agent, provider and model used, whether the
reply needed the repair round-trip, the error if any, and the sanitized
HTTP exchange.

Examples:
  scribe last
  scribe last --exchange
  scribe last --clear`

const lastShortDesc string = "Show the most recent request"

type lastCommander struct {
	exchange bool
	clear    bool
}

func NewLastCmd() *cobra.Command {
	cmder := &lastCommander{}

	cmd := &cobra.Command{
		Use:   "last",
		Short: lastShortDesc,
		Long:  lastLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.OutOrStdout(), configDir)
		},
	}

	cmd.Flags().BoolVarP(&cmder.exchange, "exchange", "x", false, "Print the recorded HTTP exchange")
	cmd.Flags().BoolVar(&cmder.clear, "clear", false, "Delete the last run record")

	return cmd
}

func (c *lastCommander) run(w io.Writer, configDir string) error {
	manager := dotdir.NewManager()

	if c.clear {
		if err := manager.ClearLastRun(configDir); err != nil {
			return err
		}
		fmt.Fprintln(w, "Cleared last run.")
		return nil
	}

	run, err := manager.LoadLastRun(configDir)
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}

	status := cliui.SuccessMark + " succeeded"
	if run.Repaired {
		status += " after repair"
	}
	if !run.Succeeded() {
		status = cliui.FailMark + " failed"
	}

	fmt.Fprintf(w, "\n  %s %s\n", cliui.KeyStyle.Render("Command: "), cliui.ValueStyle.Render(run.Command))
	fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Agent:   "), cliui.ValueStyle.Render(run.Agent))
	fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Provider:"), cliui.ValueStyle.Render(run.Provider))
	fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Model:   "), cliui.ValueStyle.Render(run.Model))
	fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("At:      "), cliui.DimStyle.Render(run.At.Local().Format("2006-01-02 15:04:05")))
	fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Status:  "), status)
	if run.Error != "" {
		fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Error:   "), run.Error)
	}
	fmt.Fprintln(w)

	if c.exchange {
		if run.Exchange == "" {
			fmt.Fprintln(w, cliui.DimStyle.Render("  No exchange recorded."))
		} else {
			fmt.Fprintln(w, run.Exchange)
		}
	}

	return nil
}
