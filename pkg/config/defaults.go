package config

import (
	"github.com/papercomputeco/scribe/pkg/llm/image"
)

const (
	defaultAPIListen     = ":8081"
	defaultLogFormat     = "console"
	defaultImageEndpoint = image.DefaultUploadEndpoint
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Logging: LoggingConfig{
			Format: defaultLogFormat,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Image: ImageConfig{
			HostEndpoint:   defaultImageEndpoint,
			HostedGateways: append([]string(nil), image.DefaultHostedGateways...),
		},
	}
}
