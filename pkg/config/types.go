package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent scribe configuration stored as config.toml
// in the .scribe/ directory. The TOML layout uses sections for logical grouping;
// providers and agents are arrays of tables.
type Config struct {
	Version   int              `toml:"version"`
	Logging   LoggingConfig    `toml:"logging"`
	API       APIConfig        `toml:"api"`
	Image     ImageConfig      `toml:"image"`
	Defaults  DefaultsConfig   `toml:"defaults"`
	Providers []ProviderConfig `toml:"providers,omitempty"`
	Agents    []AgentConfig    `toml:"agents,omitempty"`
}

// LoggingConfig holds logger settings shared by every command.
type LoggingConfig struct {
	Debug bool `toml:"debug,omitempty"`

	// Format is "console" or "json".
	Format string `toml:"format,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ImageConfig holds image hosting settings.
type ImageConfig struct {
	// HostEndpoint is the anonymous upload endpoint. Empty disables hosting.
	HostEndpoint string `toml:"host_endpoint,omitempty"`

	// HostedGateways replaces the built-in list of gateways that get hosted
	// image URLs instead of data URLs.
	HostedGateways []string `toml:"hosted_gateways,omitempty"`
}

// DefaultsConfig names the agent used when a command does not pick one.
type DefaultsConfig struct {
	Agent string `toml:"agent,omitempty"`
}

// ProviderConfig is one configured upstream.
type ProviderConfig struct {
	ID      string `toml:"id"`
	Name    string `toml:"name,omitempty"`
	Kind    string `toml:"kind,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`

	// APIKeyEnv names the environment variable holding the key when APIKey is
	// empty. Defaults to the kind's conventional variable.
	APIKeyEnv string `toml:"api_key_env,omitempty"`

	ImageTransport string `toml:"image_transport,omitempty"`

	Models map[string]ModelParams `toml:"models,omitempty"`
}

// ModelParams are the per-model parameter overrides of a provider. Missing
// enabled flags mean "enabled when a value is present".
type ModelParams struct {
	Temperature        *float64 `toml:"temperature,omitempty"`
	TemperatureEnabled *bool    `toml:"temperature_enabled,omitempty"`
	TopP               *float64 `toml:"top_p,omitempty"`
	TopPEnabled        *bool    `toml:"top_p_enabled,omitempty"`
	MaxTokens          *int     `toml:"max_tokens,omitempty"`
	MaxTokensEnabled   *bool    `toml:"max_tokens_enabled,omitempty"`
}

// AgentConfig binds a prompt and defaults to one model of one provider.
type AgentConfig struct {
	ID           string  `toml:"id"`
	Name         string  `toml:"name,omitempty"`
	Provider     string  `toml:"provider"`
	Model        string  `toml:"model"`
	SystemPrompt string  `toml:"system_prompt,omitempty"`
	Temperature  float64 `toml:"temperature,omitempty"`
	MaxTokens    int     `toml:"max_tokens,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all scalar config keys.
// Keys use dotted notation matching the TOML section structure. Providers and
// agents are edited in config.toml directly.
var configKeys = map[string]configKeyInfo{
	"logging.debug": {
		get: func(c *Config) string { return strconv.FormatBool(c.Logging.Debug) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for logging.debug: %w", err)
			}
			c.Logging.Debug = b
			return nil
		},
	},
	"logging.format": {
		get: func(c *Config) string { return c.Logging.Format },
		set: func(c *Config, v string) error {
			switch v {
			case "console", "json":
				c.Logging.Format = v
				return nil
			default:
				return fmt.Errorf("invalid value for logging.format: %q (want console or json)", v)
			}
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"image.host_endpoint": {
		get: func(c *Config) string { return c.Image.HostEndpoint },
		set: func(c *Config, v string) error { c.Image.HostEndpoint = v; return nil },
	},
	"image.hosted_gateways": {
		get: func(c *Config) string { return strings.Join(c.Image.HostedGateways, ",") },
		set: func(c *Config, v string) error {
			c.Image.HostedGateways = splitList(v)
			return nil
		},
	},
	"defaults.agent": {
		get: func(c *Config) string { return c.Defaults.Agent },
		set: func(c *Config, v string) error { c.Defaults.Agent = v; return nil },
	},
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
