package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/scribe/pkg/dotdir"
	"github.com/papercomputeco/scribe/pkg/llm"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .scribe/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the list of all supported configuration key names
// in the order of the TOML section layout.
func ValidConfigKeys() []string {
	ordered := []string{
		"logging.debug",
		"logging.format",
		"api.listen",
		"image.host_endpoint",
		"image.hosted_gateways",
		"defaults.agent",
	}

	result := make([]string, 0, len(ordered))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}
	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target .scribe/ directory.
// If the file does not exist, returns NewDefaultConfig() so callers always receive
// a fully-populated Config with sane defaults. Fields explicitly set in the file
// override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
// An explicitly empty hosted_gateways list is kept; only a missing one is filled.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
	if cfg.Image.HostEndpoint == "" {
		cfg.Image.HostEndpoint = defaults.Image.HostEndpoint
	}
	if cfg.Image.HostedGateways == nil {
		cfg.Image.HostedGateways = defaults.Image.HostedGateways
	}
}

// SaveConfig persists the configuration to config.toml in the target .scribe/ directory.
// The file may hold API keys, so it is written owner-only.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with one provider and one agent for the named
// preset. Supported presets: "openai", "anthropic", "gemini".
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	var (
		provider ProviderConfig
		model    string
	)

	switch strings.ToLower(name) {
	case "openai":
		provider = ProviderConfig{ID: "openai", Name: "OpenAI", Kind: string(llm.OpenAICompatible)}
		model = "gpt-4o-mini"

	case "anthropic":
		provider = ProviderConfig{ID: "anthropic", Name: "Anthropic", Kind: string(llm.Anthropic)}
		model = "claude-sonnet-4-5"

	case "gemini":
		provider = ProviderConfig{ID: "gemini", Name: "Gemini", Kind: string(llm.Google)}
		model = "gemini-2.5-flash"

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}

	cfg := NewDefaultConfig()
	cfg.Providers = []ProviderConfig{provider}
	cfg.Agents = []AgentConfig{{
		ID:           "tutor",
		Name:         "Tutor",
		Provider:     provider.ID,
		Model:        model,
		SystemPrompt: "You are a patient tutor. Keep explanations accurate and concise.",
		Temperature:  0.7,
		MaxTokens:    4096,
	}}
	cfg.Defaults.Agent = "tutor"
	return cfg, nil
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"openai", "anthropic", "gemini"}
}

// ParseConfigTOML parses raw TOML bytes into a Config and validates it.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ids, kinds and agent references.
func (c *Config) Validate() error {
	providers := make(map[string]struct{}, len(c.Providers))
	for i, p := range c.Providers {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("providers[%d]: id is required", i)
		}
		if _, dup := providers[p.ID]; dup {
			return fmt.Errorf("providers[%d]: duplicate id %q", i, p.ID)
		}
		providers[p.ID] = struct{}{}

		if p.Kind != "" {
			if _, err := llm.ParseProviderKind(p.Kind); err != nil {
				return fmt.Errorf("provider %q: %w", p.ID, err)
			}
		} else if strings.TrimSpace(p.BaseURL) == "" {
			return fmt.Errorf("provider %q: kind or base_url is required", p.ID)
		}

		switch strings.ToLower(p.ImageTransport) {
		case "", llm.ImageTransportAuto, llm.ImageTransportInline, llm.ImageTransportHosted:
		default:
			return fmt.Errorf("provider %q: invalid image_transport %q", p.ID, p.ImageTransport)
		}
	}

	agents := make(map[string]struct{}, len(c.Agents))
	for i, a := range c.Agents {
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("agents[%d]: id is required", i)
		}
		if _, dup := agents[a.ID]; dup {
			return fmt.Errorf("agents[%d]: duplicate id %q", i, a.ID)
		}
		agents[a.ID] = struct{}{}

		if _, ok := providers[a.Provider]; !ok {
			return fmt.Errorf("agent %q: %w: %q", a.ID, llm.ErrUnknownProvider, a.Provider)
		}
		if strings.TrimSpace(a.Model) == "" {
			return fmt.Errorf("agent %q: model is required", a.ID)
		}
	}

	if c.Defaults.Agent != "" {
		if _, ok := agents[c.Defaults.Agent]; !ok {
			return fmt.Errorf("defaults.agent: %w: %q", llm.ErrUnknownAgent, c.Defaults.Agent)
		}
	}

	return nil
}
