// Package bootstrap assembles a ready-to-use orchestrator from the resolved
// .scribe/ directory: .env files, config.toml, viper overrides and logging.
package bootstrap

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papercomputeco/scribe/pkg/codec"
	"github.com/papercomputeco/scribe/pkg/config"
	"github.com/papercomputeco/scribe/pkg/dotdir"
	"github.com/papercomputeco/scribe/pkg/llm/image"
	"github.com/papercomputeco/scribe/pkg/llm/provider"
	"github.com/papercomputeco/scribe/pkg/llm/provider/transport"
	"github.com/papercomputeco/scribe/pkg/logger"
	"github.com/papercomputeco/scribe/pkg/orchestrator"
)

// Options controls Load.
type Options struct {
	// ConfigDir overrides .scribe/ resolution.
	ConfigDir string

	// Debug forces debug logging regardless of logging.debug.
	Debug bool

	// Viper carries flag and environment overrides. Optional.
	Viper *viper.Viper

	// LogWriter receives log output. Defaults to os.Stderr so command output
	// on stdout stays clean.
	LogWriter io.Writer
}

// Env is everything a command needs to run requests.
type Env struct {
	// Dir is the resolved .scribe/ directory, empty when none exists.
	Dir string

	Configer     *config.Configer
	Config       *config.Config
	Logger       *zap.Logger
	Orchestrator *orchestrator.Orchestrator
}

// Load resolves the config directory, loads .env files and config.toml,
// applies overrides and builds the orchestrator.
func Load(opts Options) (*Env, error) {
	dir, err := dotdir.NewManager().Target(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if err := config.LoadEnv(dir); err != nil {
		return nil, err
	}

	cfger, err := config.NewConfiger(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.Viper != nil {
		config.ApplyViper(opts.Viper, cfg)
	}

	w := opts.LogWriter
	if w == nil {
		w = os.Stderr
	}
	l := NewLogger(cfg, opts.Debug, w)

	return &Env{
		Dir:          dir,
		Configer:     cfger,
		Config:       cfg,
		Logger:       l,
		Orchestrator: NewOrchestrator(cfg, l),
	}, nil
}

// NewLogger builds the logger described by cfg.Logging.
func NewLogger(cfg *config.Config, debug bool, w io.Writer) *zap.Logger {
	return logger.New(
		logger.WithDebug(debug || cfg.Logging.Debug),
		logger.WithJSON(cfg.Logging.Format == "json"),
		logger.WithWriter(w),
	)
}

// NewOrchestrator wires the shared transport, every provider adapter and the
// image resolver for cfg. An empty image.host_endpoint disables hosting.
func NewOrchestrator(cfg *config.Config, l *zap.Logger) *orchestrator.Orchestrator {
	cd := codec.New()

	client := transport.New(
		transport.WithCodec(cd),
		transport.WithLogger(l),
	)

	var uploader image.Uploader
	if cfg.Image.HostEndpoint != "" {
		uploader = image.NewTmpfilesUploader(cfg.Image.HostEndpoint, nil, cd)
	}

	resolver := image.NewResolver(uploader,
		image.WithHostedGateways(cfg.Image.HostedGateways),
		image.WithLogger(l),
	)

	return orchestrator.New(provider.NewRegistry(client),
		orchestrator.WithImageResolver(resolver),
		orchestrator.WithLogger(l),
	)
}
