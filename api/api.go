package api

import (
	"context"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/papercomputeco/scribe/pkg/codec"
	"github.com/papercomputeco/scribe/pkg/config"
	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/orchestrator"
)

// Runner is the orchestration surface the server drives.
// *orchestrator.Orchestrator implements it.
type Runner interface {
	GenerateQuestions(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, in orchestrator.QuestionsInput) (*llm.ChatResult, error)
	ExplainPages(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, in orchestrator.PagesInput) (*llm.ChatResult, error)
	Explain(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, in orchestrator.ExplainInput) (*llm.ChatResult, error)
	Probe(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, in orchestrator.ProbeInput) (*llm.ChatResult, error)
	ListModels(ctx context.Context, cfg llm.ProviderConfig) ([]string, error)
}

// Server is the API server for running scribe requests over HTTP.
type Server struct {
	config Config
	store  *config.Store
	runner Runner
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server. Providers and agents are read from
// store on every request, so a reloaded config applies to the next call.
func NewServer(cfg Config, store *config.Store, runner Runner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}

	cd := codec.New()
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit,
		JSONEncoder:           cd.Marshal,
		JSONDecoder:           cd.Unmarshal,
	})
	app.Use(recover.New())

	s := &Server{
		config: cfg,
		store:  store,
		runner: runner,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Get("/providers", s.handleListProviders)
	v1.Get("/providers/:id/models", s.handleListModels)
	v1.Get("/agents", s.handleListAgents)
	v1.Post("/questions", s.handleQuestions)
	v1.Post("/pages", s.handlePages)
	v1.Post("/explain", s.handleExplain)
	v1.Post("/probe", s.handleProbe)

	if cfg.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(cfg.MCP.Handler()))
	}

	return s
}

// App exposes the fiber app, mainly for app.Test in specs.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
