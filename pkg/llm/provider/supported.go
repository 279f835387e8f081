package provider

import (
	"fmt"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/scribe/pkg/llm/provider/gemini"
	"github.com/papercomputeco/scribe/pkg/llm/provider/openai"
	"github.com/papercomputeco/scribe/pkg/llm/provider/transport"
)

// SupportedProviders returns the list of all supported provider kind names.
func SupportedProviders() []string {
	kinds := llm.SupportedKinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	return names
}

// New creates the Provider for kind, sending through client.
// Returns an error if the kind is not recognized.
func New(kind llm.ProviderKind, client *transport.Client) (Provider, error) {
	switch kind {
	case llm.OpenAICompatible:
		return openai.New(client), nil
	case llm.Anthropic:
		return anthropic.New(client), nil
	case llm.Google:
		return gemini.New(client), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %v)", llm.ErrUnknownProvider, kind, SupportedProviders())
	}
}

// DefaultBaseURL returns the public endpoint of kind, or "" for unknown kinds.
func DefaultBaseURL(kind llm.ProviderKind) string {
	switch kind {
	case llm.OpenAICompatible:
		return openai.DefaultBaseURL
	case llm.Anthropic:
		return anthropic.DefaultBaseURL
	case llm.Google:
		return gemini.DefaultBaseURL
	default:
		return ""
	}
}

// Registry holds one Provider per kind, all sharing the same transport.
type Registry struct {
	providers map[llm.ProviderKind]Provider
}

// NewRegistry builds a Provider for every supported kind.
func NewRegistry(client *transport.Client) *Registry {
	r := &Registry{providers: make(map[llm.ProviderKind]Provider)}
	for _, kind := range llm.SupportedKinds() {
		p, err := New(kind, client)
		if err != nil {
			continue
		}
		r.providers[kind] = p
	}
	return r
}

// For returns the Provider handling kind.
func (r *Registry) For(kind llm.ProviderKind) (Provider, error) {
	p, ok := r.providers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", llm.ErrUnknownProvider, kind)
	}
	return p, nil
}
