// Package orchestrator runs one logical LLM request end to end: prompt
// composition, parameter and image resolution, the provider call, JSON
// recovery and at most one repair round-trip.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/scribe/pkg/envelope"
	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/exchange"
	"github.com/papercomputeco/scribe/pkg/llm/image"
	"github.com/papercomputeco/scribe/pkg/llm/params"
	"github.com/papercomputeco/scribe/pkg/llm/provider"
)

// Providers resolves the adapter for a provider kind.
type Providers interface {
	For(kind llm.ProviderKind) (provider.Provider, error)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithImageResolver sets the image resolver. Without one, images are always
// sent inline.
func WithImageResolver(r *image.Resolver) Option {
	return func(o *Orchestrator) { o.images = r }
}

// WithValidator sets the envelope validator.
func WithValidator(v *envelope.Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// Orchestrator is immutable after New and safe for concurrent use. Calls
// share nothing but the read-only collaborators set here.
type Orchestrator struct {
	providers Providers
	images    *image.Resolver
	validator *envelope.Validator
	detector  *provider.Detector
	logger    *zap.Logger
}

// New creates an Orchestrator.
func New(providers Providers, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers: providers,
		detector:  provider.NewDetector(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.images == nil {
		o.images = image.NewResolver(nil, image.WithLogger(o.logger))
	}
	if o.validator == nil {
		o.validator = envelope.NewValidator(nil)
	}
	return o
}

// attempt tracks the exchanges of one logical call.
type attempt struct {
	logger    *zap.Logger
	exchanges []string
}

func (a *attempt) record(ex *exchange.Exchange) {
	if ex != nil {
		a.exchanges = append(a.exchanges, ex.String())
	}
}

func (a *attempt) debug() string {
	return exchange.Join(a.exchanges...)
}

// Chat runs req against cfg with agent's prompt, model and defaults.
//
// In strict mode (req.RequireJSON) the reply must validate against the
// envelope; otherwise one repair round-trip is made and its failure is
// returned as *Failure carrying both exchanges. With an envelope key but no
// strict requirement the reply is scored leniently and never fails
// validation. Without an envelope key the raw text is returned.
func (o *Orchestrator) Chat(ctx context.Context, cfg llm.ProviderConfig, agent llm.AgentConfig, req llm.ChatRequest) (*llm.ChatResult, error) {
	if req.RequireJSON && (req.EnvelopeKey == "" || req.ExpectedCount <= 0) {
		return nil, fmt.Errorf("%w: strict JSON needs an envelope key and a positive count", ErrInvalidRequest)
	}

	kind := cfg.Kind
	if kind == "" {
		kind = o.detector.Detect(cfg.BaseURL)
		cfg.Kind = kind
	}
	p, err := o.providers.For(kind)
	if err != nil {
		return nil, err
	}

	att := &attempt{
		logger: o.logger.With(
			zap.String("request_id", uuid.NewString()),
			zap.String("provider", cfg.ID),
			zap.String("kind", string(kind)),
			zap.String("model", agent.Model),
		),
	}

	exp := envelope.Expectation{Key: req.EnvelopeKey, Count: req.ExpectedCount, RequireTitle: req.RequireTitle}

	system := ComposeSystemPrompt(agent.SystemPrompt, req.SystemPrompt)
	if req.RequireJSON {
		system = ComposeSystemPrompt(SanitizeForJSON(system), JSONContract(exp))
	}

	call := llm.Call{
		Config:           cfg,
		Model:            agent.Model,
		SystemPrompt:     system,
		UserText:         req.UserText,
		RequireJSON:      req.RequireJSON,
		EnvelopeKey:      req.EnvelopeKey,
		ExpectedCount:    req.ExpectedCount,
		DefaultMaxTokens: agent.MaxTokens,
	}
	params.Resolve(cfg, agent).Apply(&call)

	if !req.Image.Empty() {
		resolved, err := o.images.Resolve(ctx, cfg, req.Image)
		if err != nil {
			return nil, err
		}
		call.ImageBytes = resolved.Bytes
		call.ImageURL = resolved.URL
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reply, err := o.send(ctx, p, call, att)
	if err != nil {
		return nil, err
	}

	if !req.RequireJSON {
		if req.EnvelopeKey == "" {
			return &llm.ChatResult{
				Text:        reply.Text,
				RawResponse: reply.Body,
				Exchange:    att.debug(),
			}, nil
		}
		res := o.validator.Lenient(reply.Text, exp)
		return &llm.ChatResult{
			Text:        res.Text,
			Items:       res.Items,
			RawResponse: reply.Body,
			Exchange:    att.debug(),
		}, nil
	}

	res, firstErr := o.validator.Strict(reply.Text, exp)
	if firstErr == nil {
		return &llm.ChatResult{
			Text:        res.Text,
			Items:       res.Items,
			RawResponse: reply.Body,
			Exchange:    att.debug(),
		}, nil
	}

	att.logger.Warn("reply failed validation, sending repair prompt", zap.Error(firstErr))

	repair := call
	repair.UserText = RepairPrompt(exp, reply.Text)
	repair.ImageBytes = nil
	repair.ImageURL = ""

	second, err := o.send(ctx, p, repair, att)
	if err != nil {
		return nil, err
	}

	res, err = o.validator.Strict(second.Text, exp)
	if err != nil {
		att.logger.Warn("repair reply failed validation", zap.Error(err))
		return nil, &Failure{
			Reason: fmt.Sprintf("model did not return the required JSON after one repair attempt: %v", err),
			Debug:  att.debug(),
			Err:    err,
		}
	}

	joined := att.debug()
	return &llm.ChatResult{
		Text:        res.Text,
		Items:       res.Items,
		RawResponse: joined,
		Exchange:    joined,
		Repaired:    true,
	}, nil
}

// send performs one provider call, plus the single inline retry when a
// hosted image URL was rejected. Provider errors come back as *Failure with
// every exchange so far; cancellation comes back as the context error.
func (o *Orchestrator) send(ctx context.Context, p provider.Provider, call llm.Call, att *attempt) (*llm.Reply, error) {
	reply, err := p.Send(ctx, call)
	if err != nil && ctx.Err() == nil && call.ImageURL != "" && len(call.ImageBytes) > 0 && image.IsUnsupportedImageURL(err) {
		att.record(llm.ExchangeOf(err))
		att.logger.Warn("upstream rejected the hosted image URL, retrying inline", zap.String("url", call.ImageURL))
		reply, err = p.Send(ctx, call.WithoutImageURL())
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		att.record(llm.ExchangeOf(err))
		att.logger.Warn("provider call failed", zap.Error(err))
		return nil, &Failure{
			Reason: err.Error(),
			Debug:  att.debug(),
			Err:    err,
		}
	}

	att.record(reply.Exchange)
	att.logger.Debug("provider replied", zap.Int("chars", len(reply.Text)))
	return reply, nil
}

// ListModels returns the models advertised by cfg's upstream.
func (o *Orchestrator) ListModels(ctx context.Context, cfg llm.ProviderConfig) ([]string, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = o.detector.Detect(cfg.BaseURL)
	}
	p, err := o.providers.For(kind)
	if err != nil {
		return nil, err
	}
	models, err := p.ListModels(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("listing models for %s: %w", cfg.ID, err)
	}
	return models, nil
}
