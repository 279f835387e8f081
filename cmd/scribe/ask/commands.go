package askcmder

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/orchestrator"
)

const defaultCount = 5

const questionsLongDesc string = `Generate an exact number of titled practice questions.

The reply must be a JSON object holding exactly --count questions. A reply
that cannot be recovered is sent back to the model once with a repair prompt
before the command fails.

Examples:
  scribe questions "photosynthesis" --count 3
  scribe questions --image worksheet.png --agent vision`

const pagesLongDesc string = `Explain study material as an exact number of titled pages.

The material is taken from the arguments, an attached image, or both.

Examples:
  scribe pages --image textbook-p12.png --count 2
  scribe pages "The mitochondria is the powerhouse of the cell" -n 1`

const explainLongDesc string = `Explain a question or an image in free form.

The reply is never rejected: anything the model returns is shown.

Examples:
  scribe explain "why is the sky blue?"
  scribe explain --image diagram.png`

const probeLongDesc string = `Send text verbatim to an agent and print the raw reply.

Useful for checking credentials and base URLs. Pair with --exchange to see
the sanitized HTTP request and response.

Examples:
  scribe probe "ping" --exchange
  scribe probe "what model are you?" --agent claude`

func NewQuestionsCmd() *cobra.Command {
	cmder := &askCommander{name: "questions"}
	cmder.call = func(ctx context.Context, o *orchestrator.Orchestrator, p llm.ProviderConfig, a llm.AgentConfig, text string, img *llm.Image) (*llm.ChatResult, error) {
		return o.GenerateQuestions(ctx, p, a, orchestrator.QuestionsInput{
			Count:        cmder.count,
			Topic:        text,
			Instructions: cmder.instructions,
			Image:        img,
		})
	}

	cmd := newAskCmd(cmder, "questions [topic]", "Generate practice questions", questionsLongDesc, cobra.ArbitraryArgs)
	cmd.Flags().IntVarP(&cmder.count, "count", "n", defaultCount, "Number of questions to generate")
	return cmd
}

func NewPagesCmd() *cobra.Command {
	cmder := &askCommander{name: "pages"}
	cmder.call = func(ctx context.Context, o *orchestrator.Orchestrator, p llm.ProviderConfig, a llm.AgentConfig, text string, img *llm.Image) (*llm.ChatResult, error) {
		return o.ExplainPages(ctx, p, a, orchestrator.PagesInput{
			Count:        cmder.count,
			Text:         text,
			Instructions: cmder.instructions,
			Image:        img,
		})
	}

	cmd := newAskCmd(cmder, "pages [text]", "Explain material as titled pages", pagesLongDesc, cobra.ArbitraryArgs)
	cmd.Flags().IntVarP(&cmder.count, "count", "n", 1, "Number of pages to produce")
	return cmd
}

func NewExplainCmd() *cobra.Command {
	cmder := &askCommander{name: "explain"}
	cmder.call = func(ctx context.Context, o *orchestrator.Orchestrator, p llm.ProviderConfig, a llm.AgentConfig, text string, img *llm.Image) (*llm.ChatResult, error) {
		return o.Explain(ctx, p, a, orchestrator.ExplainInput{
			Question:     text,
			Instructions: cmder.instructions,
			Image:        img,
		})
	}

	return newAskCmd(cmder, "explain [question]", "Explain a question or image", explainLongDesc, cobra.ArbitraryArgs)
}

func NewProbeCmd() *cobra.Command {
	cmder := &askCommander{name: "probe"}
	cmder.call = func(ctx context.Context, o *orchestrator.Orchestrator, p llm.ProviderConfig, a llm.AgentConfig, text string, img *llm.Image) (*llm.ChatResult, error) {
		return o.Probe(ctx, p, a, orchestrator.ProbeInput{Text: text, Image: img})
	}

	return newAskCmd(cmder, "probe <text>", "Send raw text to an agent", probeLongDesc, cobra.MinimumNArgs(1))
}
