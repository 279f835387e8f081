// Package servecmder provides the serve command, which runs the scribe HTTP
// API and MCP server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/scribe/api"
	"github.com/papercomputeco/scribe/api/mcp"
	"github.com/papercomputeco/scribe/pkg/bootstrap"
	"github.com/papercomputeco/scribe/pkg/config"
)

const serveLongDesc string = `Run the scribe API server.

Serves the request operations over HTTP under /v1 and, unless --no-mcp is
given, the same operations as MCP tools at /mcp.

Providers and agents are read from config.toml on every request. The file is
watched and reloaded on change; an invalid edit is logged and the previous
configuration stays in effect.

Examples:
  scribe serve
  scribe serve --listen :9090 --timeout 90s`

const serveShortDesc string = "Run the scribe API server"

var boundFlags = []string{config.FlagAPIListen, config.FlagAgent, config.FlagLogFormat, config.FlagImageHost}

type serveCommander struct {
	listen    string
	agent     string
	logFormat string
	imageHost string
	timeout   time.Duration
	noMCP     bool
	noWatch   bool

	configDir string
	debug     bool
	logger    *zap.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagAgent, &cmder.agent)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogFormat, &cmder.logFormat)
	config.AddStringFlag(cmd, config.Flags, config.FlagImageHost, &cmder.imageHost)
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 3*time.Minute, "Upper bound for one request, repair round-trip included (0 for none)")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not serve MCP tools at /mcp")
	cmd.Flags().BoolVar(&cmder.noWatch, "no-watch", false, "Do not reload config.toml on change")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, boundFlags)

	env, err := bootstrap.Load(bootstrap.Options{
		ConfigDir: c.configDir,
		Debug:     c.debug,
		Viper:     v,
	})
	if err != nil {
		return err
	}
	c.logger = env.Logger
	defer func() { _ = c.logger.Sync() }()

	store, err := config.NewStore(env.Configer, c.logger, config.WithOverrides(func(cfg *config.Config) {
		config.ApplyViper(v, cfg)
	}))
	if err != nil {
		return err
	}
	store.OnChange(func(cfg *config.Config) {
		c.logger.Info("configuration updated",
			zap.Int("providers", len(cfg.Providers)),
			zap.Int("agents", len(cfg.Agents)),
		)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !c.noWatch && env.Configer.GetTarget() != "" {
		go func() {
			if err := store.Watch(ctx); err != nil {
				c.logger.Warn("config watcher stopped", zap.Error(err))
			}
		}()
	}

	serverCfg := api.Config{
		ListenAddr:     store.Snapshot().API.Listen,
		RequestTimeout: c.timeout,
	}

	if !c.noMCP {
		serverCfg.MCP, err = mcp.NewServer(mcp.Config{
			Store:   store,
			Runner:  env.Orchestrator,
			Timeout: c.timeout,
			Logger:  c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
	}

	server := api.NewServer(serverCfg, store, env.Orchestrator, c.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.logger.Info("shutting down API server")
	return server.Shutdown()
}
