package config

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/scribe/pkg/llm"
	"github.com/papercomputeco/scribe/pkg/llm/provider"
)

// Provider returns the snapshot of the provider with id, with its kind,
// base URL and API key resolved.
func (c *Config) Provider(id string) (llm.ProviderConfig, error) {
	for _, p := range c.Providers {
		if p.ID == id {
			return p.snapshot(), nil
		}
	}
	return llm.ProviderConfig{}, fmt.Errorf("%w: %q", llm.ErrUnknownProvider, id)
}

// Agent returns the agent with id. An empty id selects defaults.agent, or the
// only agent when exactly one is configured.
func (c *Config) Agent(id string) (llm.AgentConfig, error) {
	if id == "" {
		id = c.Defaults.Agent
	}
	if id == "" && len(c.Agents) == 1 {
		id = c.Agents[0].ID
	}
	if id == "" {
		return llm.AgentConfig{}, fmt.Errorf("%w: no agent selected and no default configured", llm.ErrUnknownAgent)
	}

	for _, a := range c.Agents {
		if a.ID == id {
			return llm.AgentConfig{
				ID:           a.ID,
				Name:         a.Name,
				ProviderID:   a.Provider,
				Model:        a.Model,
				SystemPrompt: a.SystemPrompt,
				Temperature:  a.Temperature,
				MaxTokens:    a.MaxTokens,
			}, nil
		}
	}
	return llm.AgentConfig{}, fmt.Errorf("%w: %q", llm.ErrUnknownAgent, id)
}

// Resolve returns the agent with id together with its provider.
func (c *Config) Resolve(agentID string) (llm.ProviderConfig, llm.AgentConfig, error) {
	agent, err := c.Agent(agentID)
	if err != nil {
		return llm.ProviderConfig{}, llm.AgentConfig{}, err
	}
	p, err := c.Provider(agent.ProviderID)
	if err != nil {
		return llm.ProviderConfig{}, llm.AgentConfig{}, fmt.Errorf("agent %q: %w", agent.ID, err)
	}
	return p, agent, nil
}

func (p ProviderConfig) snapshot() llm.ProviderConfig {
	kind, err := llm.ParseProviderKind(p.Kind)
	if err != nil {
		kind = provider.NewDetector().Detect(p.BaseURL)
	}

	base := strings.TrimSpace(p.BaseURL)
	if base == "" {
		base = provider.DefaultBaseURL(kind)
	}

	key := p.APIKey
	if key == "" {
		key = apiKeyFromEnv(kind, p.APIKeyEnv)
	}

	var models map[string]llm.ParameterOverride
	if len(p.Models) > 0 {
		models = make(map[string]llm.ParameterOverride, len(p.Models))
		for name, m := range p.Models {
			models[name] = llm.ParameterOverride{
				Temperature:        m.Temperature,
				TemperatureEnabled: m.TemperatureEnabled,
				TopP:               m.TopP,
				TopPEnabled:        m.TopPEnabled,
				MaxTokens:          m.MaxTokens,
				MaxTokensEnabled:   m.MaxTokensEnabled,
			}
		}
	}

	return llm.ProviderConfig{
		ID:             p.ID,
		Name:           p.Name,
		Kind:           kind,
		BaseURL:        base,
		APIKey:         key,
		ImageTransport: strings.ToLower(p.ImageTransport),
		Models:         models,
	}
}
