package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/image"
	"github.com/papercomputeco/scribe/pkg/orchestrator"
)

var (
	questionsToolName    = "generate_questions"
	questionsDescription = "Generate an exact number of titled practice questions about a topic, optionally grounded on an image. Returns the questions as structured items."

	pagesToolName    = "explain_pages"
	pagesDescription = "Split study material (text and/or an image) into an exact number of titled explanation pages."

	explainToolName    = "explain"
	explainDescription = "Explain a question or attached image in free-form prose."

	agentsToolName    = "list_agents"
	agentsDescription = "List the configured agents and the provider and model each one uses."

	modelsToolName    = "list_models"
	modelsDescription = "List the models a configured provider offers upstream."
)

// QuestionsInput represents the input arguments for the generate_questions tool.
type QuestionsInput struct {
	Agent        string `json:"agent,omitempty" jsonschema:"agent id (default: the configured default agent)"`
	Count        int    `json:"count" jsonschema:"exact number of questions to generate"`
	Topic        string `json:"topic,omitempty" jsonschema:"subject of the questions"`
	Instructions string `json:"instructions,omitempty" jsonschema:"extra instructions appended to the system prompt"`
	ImageBase64  string `json:"image_base64,omitempty" jsonschema:"image as raw base64 or a data: URL"`
	ImageURL     string `json:"image_url,omitempty" jsonschema:"directly downloadable http(s) image URL, OpenAI-compatible agents only"`
}

// PagesInput represents the input arguments for the explain_pages tool.
type PagesInput struct {
	Agent        string `json:"agent,omitempty" jsonschema:"agent id (default: the configured default agent)"`
	Count        int    `json:"count" jsonschema:"exact number of pages to produce"`
	Text         string `json:"text,omitempty" jsonschema:"material to explain"`
	Instructions string `json:"instructions,omitempty" jsonschema:"extra instructions appended to the system prompt"`
	ImageBase64  string `json:"image_base64,omitempty" jsonschema:"image as raw base64 or a data: URL"`
	ImageURL     string `json:"image_url,omitempty" jsonschema:"directly downloadable http(s) image URL, OpenAI-compatible agents only"`
}

// ExplainInput represents the input arguments for the explain tool.
type ExplainInput struct {
	Agent        string `json:"agent,omitempty" jsonschema:"agent id (default: the configured default agent)"`
	Question     string `json:"question,omitempty" jsonschema:"what to explain"`
	Instructions string `json:"instructions,omitempty" jsonschema:"extra instructions appended to the system prompt"`
	ImageBase64  string `json:"image_base64,omitempty" jsonschema:"image as raw base64 or a data: URL"`
	ImageURL     string `json:"image_url,omitempty" jsonschema:"directly downloadable http(s) image URL, OpenAI-compatible agents only"`
}

// AgentsInput represents the input arguments for the list_agents tool.
type AgentsInput struct{}

// ModelsInput represents the input arguments for the list_models tool.
type ModelsInput struct {
	Provider string `json:"provider" jsonschema:"configured provider id"`
}

// Item is one generated question or page.
type Item struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// ResultOutput is the output of the generation tools.
type ResultOutput struct {
	Agent    string `json:"agent"`
	Text     string `json:"text"`
	Items    []Item `json:"items,omitempty"`
	Repaired bool   `json:"repaired,omitempty"`
}

// Agent describes a configured agent.
type Agent struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Default  bool   `json:"default,omitempty"`
}

// AgentsOutput represents the output of the list_agents tool.
type AgentsOutput struct {
	Agents []Agent `json:"agents"`
}

// ModelsOutput represents the output of the list_models tool.
type ModelsOutput struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
}

type runFunc func(ctx context.Context, p llm.ProviderConfig, a llm.AgentConfig) (*llm.ChatResult, error)

func (s *Server) handleQuestions(ctx context.Context, _ *mcp.CallToolRequest, input QuestionsInput) (*mcp.CallToolResult, ResultOutput, error) {
	img, err := image.Decode(input.ImageBase64, input.ImageURL)
	if err != nil {
		return toolError(err), ResultOutput{}, nil
	}
	return s.run(ctx, questionsToolName, input.Agent, func(ctx context.Context, p llm.ProviderConfig, a llm.AgentConfig) (*llm.ChatResult, error) {
		return s.config.Runner.GenerateQuestions(ctx, p, a, orchestrator.QuestionsInput{
			Count:        input.Count,
			Topic:        input.Topic,
			Instructions: input.Instructions,
			Image:        img,
		})
	})
}

func (s *Server) handlePages(ctx context.Context, _ *mcp.CallToolRequest, input PagesInput) (*mcp.CallToolResult, ResultOutput, error) {
	img, err := image.Decode(input.ImageBase64, input.ImageURL)
	if err != nil {
		return toolError(err), ResultOutput{}, nil
	}
	return s.run(ctx, pagesToolName, input.Agent, func(ctx context.Context, p llm.ProviderConfig, a llm.AgentConfig) (*llm.ChatResult, error) {
		return s.config.Runner.ExplainPages(ctx, p, a, orchestrator.PagesInput{
			Count:        input.Count,
			Text:         input.Text,
			Instructions: input.Instructions,
			Image:        img,
		})
	})
}

func (s *Server) handleExplain(ctx context.Context, _ *mcp.CallToolRequest, input ExplainInput) (*mcp.CallToolResult, ResultOutput, error) {
	img, err := image.Decode(input.ImageBase64, input.ImageURL)
	if err != nil {
		return toolError(err), ResultOutput{}, nil
	}
	return s.run(ctx, explainToolName, input.Agent, func(ctx context.Context, p llm.ProviderConfig, a llm.AgentConfig) (*llm.ChatResult, error) {
		return s.config.Runner.Explain(ctx, p, a, orchestrator.ExplainInput{
			Question:     input.Question,
			Instructions: input.Instructions,
			Image:        img,
		})
	})
}

func (s *Server) handleAgents(_ context.Context, _ *mcp.CallToolRequest, _ AgentsInput) (*mcp.CallToolResult, AgentsOutput, error) {
	cfg := s.config.Store.Snapshot()

	out := AgentsOutput{Agents: make([]Agent, 0, len(cfg.Agents))}
	for _, a := range cfg.Agents {
		out.Agents = append(out.Agents, Agent{
			ID:       a.ID,
			Name:     a.Name,
			Provider: a.Provider,
			Model:    a.Model,
			Default:  a.ID == cfg.Defaults.Agent,
		})
	}
	return nil, out, nil
}

func (s *Server) handleModels(ctx context.Context, _ *mcp.CallToolRequest, input ModelsInput) (*mcp.CallToolResult, ModelsOutput, error) {
	p, err := s.config.Store.Snapshot().Provider(input.Provider)
	if err != nil {
		return toolError(err), ModelsOutput{}, nil
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	models, err := s.config.Runner.ListModels(ctx, p)
	if err != nil {
		s.config.Logger.Error("failed to list models", zap.String("provider", p.ID), zap.Error(err))
		return toolError(err), ModelsOutput{}, nil
	}
	return nil, ModelsOutput{Provider: p.ID, Models: models}, nil
}

// run resolves the agent against the current config snapshot and executes fn.
func (s *Server) run(ctx context.Context, tool, agentID string, fn runFunc) (*mcp.CallToolResult, ResultOutput, error) {
	logger := s.config.Logger

	p, a, err := s.config.Store.Snapshot().Resolve(agentID)
	if err != nil {
		return toolError(err), ResultOutput{}, nil
	}

	logger.Debug("MCP tool request",
		zap.String("tool", tool),
		zap.String("agent", a.ID),
	)

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := fn(ctx, p, a)
	if err != nil {
		logger.Error("MCP tool failed",
			zap.String("tool", tool),
			zap.String("agent", a.ID),
			zap.Error(err),
		)
		return toolError(err), ResultOutput{}, nil
	}

	out := ResultOutput{Agent: a.ID, Text: res.Text, Repaired: res.Repaired}
	for _, it := range res.Items {
		out.Items = append(out.Items, Item{Title: it.Title, Text: it.Text})
	}
	return nil, out, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Request failed: %v", err)},
		},
	}
}
