// Package askcmder provides the request commands: questions, pages, explain
// and probe. Each one runs a single orchestrated call against the selected
// agent and records the outcome in the .scribe/ directory.
package askcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/scribe/pkg/bootstrap"
	"github.com/papercomputeco/scribe/pkg/cliui"
	"github.com/papercomputeco/scribe/pkg/config"
	"github.com/papercomputeco/scribe/pkg/dotdir"
	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/orchestrator"
)

// boundFlags are the registry flags every request command binds to viper.
var boundFlags = []string{config.FlagAgent, config.FlagLogFormat, config.FlagImageHost}

type requestFunc func(ctx context.Context, o *orchestrator.Orchestrator, p llm.ProviderConfig, a llm.AgentConfig, text string, img *llm.Image) (*llm.ChatResult, error)

type askCommander struct {
	name string
	call requestFunc

	agent        string
	logFormat    string
	imageHost    string
	count        int
	instructions string
	imagePath    string
	imageURL     string
	jsonOut      bool
	showExchange bool

	configDir string
	debug     bool
	logger    *zap.Logger
}

func newAskCmd(cmder *askCommander, use, short, long string, args cobra.PositionalArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAgent, &cmder.agent)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogFormat, &cmder.logFormat)
	config.AddStringFlag(cmd, config.Flags, config.FlagImageHost, &cmder.imageHost)
	cmd.Flags().StringVarP(&cmder.instructions, "instructions", "i", "", "Extra instructions appended to the system prompt")
	cmd.Flags().StringVar(&cmder.imagePath, "image", "", "Path to an image to attach")
	cmd.Flags().StringVar(&cmder.imageURL, "image-url", "", "Directly downloadable image URL to attach (OpenAI-compatible providers only)")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&cmder.showExchange, "exchange", false, "Print the recorded HTTP exchange to stderr")

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, text string) error {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, boundFlags)

	env, err := bootstrap.Load(bootstrap.Options{
		ConfigDir: c.configDir,
		Debug:     c.debug,
		Viper:     v,
		LogWriter: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	c.logger = env.Logger
	defer func() { _ = c.logger.Sync() }()

	img, err := c.image()
	if err != nil {
		return err
	}

	p, a, err := env.Config.Resolve("")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var res *llm.ChatResult
	stepErr := cliui.Step(cmd.ErrOrStderr(), fmt.Sprintf("%s with %s (%s)", c.name, a.ID, a.Model), func() error {
		res, err = c.call(ctx, env.Orchestrator, p, a, text, img)
		return err
	})

	c.record(p, a, res, stepErr)

	if c.showExchange {
		if ex := exchangeOf(res, stepErr); ex != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), ex)
		}
	}
	if stepErr != nil {
		return stepErr
	}

	return c.print(cmd.OutOrStdout(), res)
}

func (c *askCommander) image() (*llm.Image, error) {
	img := &llm.Image{URL: strings.TrimSpace(c.imageURL)}
	if c.imagePath != "" {
		raw, err := os.ReadFile(c.imagePath)
		if err != nil {
			return nil, fmt.Errorf("reading image: %w", err)
		}
		img.Bytes = raw
	}
	if img.Empty() {
		return nil, nil
	}
	return img, nil
}

// record persists the outcome for "scribe last". Failures to write are logged
// and never fail the command.
func (c *askCommander) record(p llm.ProviderConfig, a llm.AgentConfig, res *llm.ChatResult, err error) {
	run := &dotdir.LastRun{
		Command:  c.name,
		Provider: p.ID,
		Agent:    a.ID,
		Model:    a.Model,
		At:       time.Now().UTC(),
		Exchange: exchangeOf(res, err),
	}
	if err != nil {
		run.Error = err.Error()
	}
	if res != nil {
		run.Repaired = res.Repaired
	}

	if saveErr := dotdir.NewManager().SaveLastRun(run, c.configDir); saveErr != nil {
		c.logger.Warn("could not record last run", zap.Error(saveErr))
	}
}

func (c *askCommander) print(w io.Writer, res *llm.ChatResult) error {
	if c.jsonOut {
		out, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}

	_, err := fmt.Fprint(w, cliui.Markdown(w, renderResult(res)))
	return err
}

// renderResult formats the result as markdown: one section per titled item,
// the plain text otherwise.
func renderResult(res *llm.ChatResult) string {
	if len(res.Items) == 0 {
		return res.Text + "\n"
	}

	var b strings.Builder
	for i, item := range res.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		if item.Title != "" {
			fmt.Fprintf(&b, "## %d. %s\n\n", i+1, item.Title)
		}
		b.WriteString(item.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// exchangeOf returns the debug snapshot of a result or of a failed call.
func exchangeOf(res *llm.ChatResult, err error) string {
	if res != nil {
		return res.Exchange
	}
	var failure *orchestrator.Failure
	if errors.As(err, &failure) {
		return failure.Debug
	}
	if ex := llm.ExchangeOf(err); ex != nil {
		return ex.String()
	}
	return ""
}
