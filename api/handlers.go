package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/image"
	"github.com/papercomputeco/scribe/pkg/orchestrator"
)

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListProviders returns every configured provider, keys omitted.
func (s *Server) handleListProviders(c *fiber.Ctx) error {
	cfg := s.store.Snapshot()

	out := make([]ProviderSummary, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		snap, err := cfg.Provider(p.ID)
		if err != nil {
			continue
		}
		out = append(out, ProviderSummary{
			ID:        snap.ID,
			Name:      snap.Name,
			Kind:      snap.Kind,
			BaseURL:   snap.BaseURL,
			HasAPIKey: snap.APIKey != "",
		})
	}
	return c.JSON(out)
}

// handleListAgents returns every configured agent.
func (s *Server) handleListAgents(c *fiber.Ctx) error {
	cfg := s.store.Snapshot()

	out := make([]AgentSummary, 0, len(cfg.Agents))
	for _, a := range cfg.Agents {
		out = append(out, AgentSummary{ID: a.ID, Name: a.Name, Provider: a.Provider, Model: a.Model})
	}
	return c.JSON(out)
}

// handleListModels asks the provider's upstream for its models.
func (s *Server) handleListModels(c *fiber.Ctx) error {
	p, err := s.store.Snapshot().Provider(c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	models, err := s.runner.ListModels(ctx, p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(ModelsResponse{Provider: p.ID, Models: models})
}

func (s *Server) handleQuestions(c *fiber.Ctx) error {
	var req QuestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	img, err := decodeImage(req.Image)
	if err != nil {
		return s.fail(c, err)
	}

	return s.run(c, req.Agent, "questions", func(ctx context.Context, p llm.ProviderConfig, a llm.AgentConfig) (*llm.ChatResult, error) {
		return s.runner.GenerateQuestions(ctx, p, a, orchestrator.QuestionsInput{
			Count:        req.Count,
			Topic:        req.Topic,
			Instructions: req.Instructions,
			Image:        img,
		})
	})
}

func (s *Server) handlePages(c *fiber.Ctx) error {
	var req PagesRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	img, err := decodeImage(req.Image)
	if err != nil {
		return s.fail(c, err)
	}

	return s.run(c, req.Agent, "pages", func(ctx context.Context, p llm.ProviderConfig, a llm.AgentConfig) (*llm.ChatResult, error) {
		return s.runner.ExplainPages(ctx, p, a, orchestrator.PagesInput{
			Count:        req.Count,
			Text:         req.Text,
			Instructions: req.Instructions,
			Image:        img,
		})
	})
}

func (s *Server) handleExplain(c *fiber.Ctx) error {
	var req ExplainRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	img, err := decodeImage(req.Image)
	if err != nil {
		return s.fail(c, err)
	}

	return s.run(c, req.Agent, "explain", func(ctx context.Context, p llm.ProviderConfig, a llm.AgentConfig) (*llm.ChatResult, error) {
		return s.runner.Explain(ctx, p, a, orchestrator.ExplainInput{
			Question:     req.Question,
			Instructions: req.Instructions,
			Image:        img,
		})
	})
}

func (s *Server) handleProbe(c *fiber.Ctx) error {
	var req ProbeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	img, err := decodeImage(req.Image)
	if err != nil {
		return s.fail(c, err)
	}

	return s.run(c, req.Agent, "probe", func(ctx context.Context, p llm.ProviderConfig, a llm.AgentConfig) (*llm.ChatResult, error) {
		return s.runner.Probe(ctx, p, a, orchestrator.ProbeInput{Text: req.Text, Image: img})
	})
}

type runFunc func(ctx context.Context, p llm.ProviderConfig, a llm.AgentConfig) (*llm.ChatResult, error)

// run resolves the agent against the current config snapshot and executes fn.
func (s *Server) run(c *fiber.Ctx, agentID, op string, fn runFunc) error {
	p, a, err := s.store.Snapshot().Resolve(agentID)
	if err != nil {
		return s.fail(c, err)
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	res, err := fn(ctx, p, a)
	if err != nil {
		s.logger.Warn("request failed",
			zap.String("op", op),
			zap.String("agent", a.ID),
			zap.Error(err),
		)
		return s.fail(c, err)
	}

	s.logger.Debug("request succeeded",
		zap.String("op", op),
		zap.String("agent", a.ID),
		zap.Int("items", len(res.Items)),
		zap.Bool("repaired", res.Repaired),
	)
	return c.JSON(res)
}

func (s *Server) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	ctx := c.UserContext()
	if s.config.RequestTimeout > 0 {
		return context.WithTimeout(ctx, s.config.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

// fail maps err onto a status code and the {"error","debug"} body.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	resp := llm.ErrorResponse{Error: err.Error()}

	var failure *orchestrator.Failure
	switch {
	case errors.Is(err, orchestrator.ErrInvalidRequest), errors.Is(err, image.ErrInvalidImage):
		status = fiber.StatusBadRequest
	case errors.Is(err, llm.ErrUnknownAgent), errors.Is(err, llm.ErrUnknownProvider):
		status = fiber.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = fiber.StatusGatewayTimeout
	case errors.As(err, &failure):
		status = fiber.StatusBadGateway
		resp.Debug = failure.Debug
	default:
		if ex := llm.ExchangeOf(err); ex != nil {
			status = fiber.StatusBadGateway
			resp.Debug = ex.String()
		}
	}

	return c.Status(status).JSON(resp)
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
}

// decodeImage turns the wire payload into an llm.Image. nil in, nil out.
func decodeImage(p *ImagePayload) (*llm.Image, error) {
	if p == nil {
		return nil, nil
	}
	return image.Decode(p.Base64, p.URL)
}
