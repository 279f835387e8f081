package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/scribe/pkg/llm"
)

// ErrInvalidRequest is returned for requests rejected before any network call.
var ErrInvalidRequest = errors.New("invalid request")

// Envelope keys of the strict use cases.
const (
	QuestionsKey = "questions"
	PagesKey     = "pages"
)

// QuestionsInput asks for Count titled questions about Topic.
type QuestionsInput struct {
	Count        int
	Topic        string
	Instructions string
	Image        *llm.Image
}

// PagesInput asks for Count titled explanation pages of the attached material.
type PagesInput struct {
	Count        int
	Text         string
	Instructions string
	Image        *llm.Image
}

// ExplainInput asks for a free-form explanation.
type ExplainInput struct {
	Question     string
	Instructions string
	Image        *llm.Image
}

// ProbeInput is sent as-is, for connectivity and prompt debugging.
type ProbeInput struct {
	Text  string
	Image *llm.Image
}

// GenerateQuestions returns exactly in.Count questions, each with a title.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, in QuestionsInput) (*llm.ChatResult, error) {
	if in.Count <= 0 {
		return nil, fmt.Errorf("%w: question count must be positive, got %d", ErrInvalidRequest, in.Count)
	}
	if strings.TrimSpace(in.Topic) == "" && in.Image.Empty() {
		return nil, fmt.Errorf("%w: a topic or an image is required", ErrInvalidRequest)
	}

	user := strings.TrimSpace(in.Topic)
	if user == "" {
		user = "Base the questions on the attached image."
	}

	return o.Chat(ctx, cfg, agent, llm.ChatRequest{
		SystemPrompt:  questionsPrompt(in),
		UserText:      user,
		Image:         in.Image,
		RequireJSON:   true,
		EnvelopeKey:   QuestionsKey,
		ExpectedCount: in.Count,
		RequireTitle:  true,
	})
}

// ExplainPages returns exactly in.Count titled pages.
func (o *Orchestrator) ExplainPages(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, in PagesInput) (*llm.ChatResult, error) {
	if in.Count <= 0 {
		return nil, fmt.Errorf("%w: page count must be positive, got %d", ErrInvalidRequest, in.Count)
	}
	if strings.TrimSpace(in.Text) == "" && in.Image.Empty() {
		return nil, fmt.Errorf("%w: text or an image is required", ErrInvalidRequest)
	}

	user := strings.TrimSpace(in.Text)
	if user == "" {
		user = "Explain the attached page."
	}

	return o.Chat(ctx, cfg, agent, llm.ChatRequest{
		SystemPrompt:  pagesPrompt(in),
		UserText:      user,
		Image:         in.Image,
		RequireJSON:   true,
		EnvelopeKey:   PagesKey,
		ExpectedCount: in.Count,
		RequireTitle:  true,
	})
}

// Explain returns a best-effort explanation. It does not fail on malformed
// output; the reply degrades to a single item instead.
func (o *Orchestrator) Explain(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, in ExplainInput) (*llm.ChatResult, error) {
	if strings.TrimSpace(in.Question) == "" && in.Image.Empty() {
		return nil, fmt.Errorf("%w: a question or an image is required", ErrInvalidRequest)
	}

	return o.Chat(ctx, cfg, agent, llm.ChatRequest{
		SystemPrompt: explainPrompt(in),
		UserText:     in.Question,
		Image:        in.Image,
		EnvelopeKey:  PagesKey,
	})
}

// Probe sends in verbatim and returns the raw reply with its exchange.
func (o *Orchestrator) Probe(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, in ProbeInput) (*llm.ChatResult, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: probe text is required", ErrInvalidRequest)
	}

	return o.Chat(ctx, cfg, agent, llm.ChatRequest{
		UserText: in.Text,
		Image:    in.Image,
	})
}
