// Package params resolves the generation parameters sent with each call.
package params

import "github.com/papercomputeco/scribe/pkg/llm"

// Resolved holds the parameters to put on the wire. A nil field must be
// omitted from the outgoing request so the provider applies its own default.
type Resolved struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Resolve computes the parameters for agent's model on cfg.
//
// With a per-model override record, each parameter is decided independently:
// an explicit enabled flag wins, and without one the parameter is enabled
// exactly when a value is stored. Without any record the agent defaults apply
// and top-p is left to the provider.
func Resolve(cfg llm.ProviderConfig, agent llm.AgentConfig) Resolved {
	override, ok := cfg.Override(agent.Model)
	if !ok {
		return agentDefaults(agent)
	}

	return Resolved{
		Temperature: pick(override.Temperature, override.TemperatureEnabled),
		TopP:        pick(override.TopP, override.TopPEnabled),
		MaxTokens:   pick(override.MaxTokens, override.MaxTokensEnabled),
	}
}

// Apply copies r onto call.
func (r Resolved) Apply(call *llm.Call) {
	call.Temperature = r.Temperature
	call.TopP = r.TopP
	call.MaxTokens = r.MaxTokens
}

func agentDefaults(agent llm.AgentConfig) Resolved {
	temp := agent.Temperature
	r := Resolved{Temperature: &temp}
	if agent.MaxTokens > 0 {
		maxTokens := agent.MaxTokens
		r.MaxTokens = &maxTokens
	}
	return r
}

// pick implements the explicit-on / explicit-off / implied-by-presence rule.
func pick[T any](value *T, enabled *bool) *T {
	if enabled != nil && !*enabled {
		return nil
	}
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
