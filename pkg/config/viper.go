package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/scribe/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SCRIBE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SCRIBE_API_LISTEN, SCRIBE_LOGGING_DEBUG, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
//
// Only scalar keys go through viper. Providers and agents are read with
// Configer.LoadConfig.
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("SCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Logging
	v.SetDefault("logging.debug", d.Logging.Debug)
	v.SetDefault("logging.format", d.Logging.Format)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Image
	v.SetDefault("image.host_endpoint", d.Image.HostEndpoint)
	v.SetDefault("image.hosted_gateways", d.Image.HostedGateways)

	// Defaults
	v.SetDefault("defaults.agent", d.Defaults.Agent)
}

// ApplyViper copies the scalar keys resolved by v onto cfg, so flag and
// environment overrides reach the loaded file config.
func ApplyViper(v *viper.Viper, cfg *Config) {
	cfg.Logging.Debug = v.GetBool("logging.debug")
	cfg.Logging.Format = v.GetString("logging.format")
	cfg.API.Listen = v.GetString("api.listen")
	cfg.Image.HostEndpoint = v.GetString("image.host_endpoint")
	if v.IsSet("image.hosted_gateways") {
		cfg.Image.HostedGateways = v.GetStringSlice("image.hosted_gateways")
	}
	if agent := v.GetString("defaults.agent"); agent != "" {
		cfg.Defaults.Agent = agent
	}
}
