package provider

import (
	"context"

	"github.com/papercomputeco/scribe/pkg/llm"
)

// Provider translates a provider-agnostic llm.Call into one upstream wire
// format, sends it and extracts the assistant text.
//
// Implementations hold no per-call state and are safe for concurrent use.
type Provider interface {
	// Name returns the canonical provider name (e.g., "openai", "anthropic", "gemini")
	Name() string

	// Kind returns the wire format this provider speaks.
	Kind() llm.ProviderKind

	// Send performs exactly one HTTP round-trip. Non-2xx answers are returned
	// as *llm.StatusError carrying the recorded exchange.
	Send(ctx context.Context, call llm.Call) (*llm.Reply, error)

	// ListModels returns the model identifiers the upstream advertises.
	// Unrecognized response shapes yield an empty list rather than an error.
	ListModels(ctx context.Context, cfg llm.ProviderConfig) ([]string, error)
}
