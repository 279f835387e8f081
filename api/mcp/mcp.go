// Package mcp provides an MCP (Model Context Protocol) server exposing the
// scribe use cases as tools.
package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/scribe/pkg/config"
	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/orchestrator"
	"github.com/papercomputeco/scribe/pkg/utils"
)

// Runner is the orchestration surface the tools drive.
type Runner interface {
	GenerateQuestions(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, in orchestrator.QuestionsInput) (*llm.ChatResult, error)
	ExplainPages(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, in orchestrator.PagesInput) (*llm.ChatResult, error)
	Explain(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, in orchestrator.ExplainInput) (*llm.ChatResult, error)
	ListModels(ctx context.Context, cfg llm.ProviderConfig) ([]string, error)
}

type Config struct {
	// Store supplies providers and agents; a snapshot is taken per tool call
	Store *config.Store

	// Runner executes the requests
	Runner Runner

	// Timeout bounds every tool call. Zero means no limit.
	Timeout time.Duration

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the scribe tools.
func NewServer(c Config) (*Server, error) {
	if c.Store == nil {
		return nil, errors.New("config store is required")
	}
	if c.Runner == nil {
		return nil, errors.New("runner is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "scribe",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        questionsToolName,
		Description: questionsDescription,
	}, s.handleQuestions)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        pagesToolName,
		Description: pagesDescription,
	}, s.handlePages)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        explainToolName,
		Description: explainDescription,
	}, s.handleExplain)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        agentsToolName,
		Description: agentsDescription,
	}, s.handleAgents)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        modelsToolName,
		Description: modelsDescription,
	}, s.handleModels)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout > 0 {
		return context.WithTimeout(ctx, s.config.Timeout)
	}
	return context.WithCancel(ctx)
}
