package llm

import (
	"fmt"
	"strings"
)

// ProviderKind identifies one of the supported chat-completion wire formats.
// The kind of a ProviderConfig never changes once the config is created.
type ProviderKind string

const (
	// OpenAICompatible covers api.openai.com and every gateway speaking the
	// /chat/completions dialect.
	OpenAICompatible ProviderKind = "openai"

	// Anthropic is the Messages API.
	Anthropic ProviderKind = "anthropic"

	// Google is the Gemini generateContent API.
	Google ProviderKind = "google"
)

// SupportedKinds returns every provider kind in a stable order.
func SupportedKinds() []ProviderKind {
	return []ProviderKind{OpenAICompatible, Anthropic, Google}
}

// ParseProviderKind maps a user supplied name onto a ProviderKind.
// A few common aliases are accepted ("gemini", "claude", "openai-compatible").
func ParseProviderKind(s string) (ProviderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai", "openai-compatible", "openai_compatible":
		return OpenAICompatible, nil
	case "anthropic", "claude":
		return Anthropic, nil
	case "google", "gemini":
		return Google, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: %v)", ErrUnknownProvider, s, SupportedKinds())
	}
}

// Image transport overrides for ProviderConfig.ImageTransport.
const (
	ImageTransportAuto   = "auto"
	ImageTransportInline = "inline"
	ImageTransportHosted = "hosted"
)

// ProviderConfig is a read-only snapshot of one configured upstream.
// Callers pass it by value per call; it must not be mutated while a call that
// received it is in flight.
type ProviderConfig struct {
	ID      string
	Name    string
	Kind    ProviderKind
	BaseURL string
	APIKey  string

	// ImageTransport overrides how images reach OpenAI-compatible upstreams:
	// "" or "auto" applies the hosted-gateway host list, "inline" always sends
	// base64 data URLs, "hosted" always uploads to the image host first.
	ImageTransport string

	// Models maps a model identifier to its parameter overrides.
	Models map[string]ParameterOverride
}

// Override returns the stored overrides for model, if any.
func (p ProviderConfig) Override(model string) (ParameterOverride, bool) {
	if p.Models == nil {
		return ParameterOverride{}, false
	}
	o, ok := p.Models[model]
	return o, ok
}

// ParameterOverride holds per-model generation parameters.
//
// Each parameter has a value and an optional explicit enabled flag. Records
// written before the flags existed carry no flag at all; for those the
// parameter counts as enabled exactly when a value is present.
type ParameterOverride struct {
	Temperature        *float64
	TemperatureEnabled *bool

	TopP        *float64
	TopPEnabled *bool

	MaxTokens        *int
	MaxTokensEnabled *bool
}

// AgentConfig binds a system prompt and defaults to one model of one provider.
// The provider is resolved by id by the caller before a call is made.
type AgentConfig struct {
	ID           string
	Name         string
	ProviderID   string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}
