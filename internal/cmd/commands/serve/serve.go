package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	api "github.com/hashicorp-forge/cms-gateway/internal/api/v1"
	"github.com/hashicorp-forge/cms-gateway/internal/audit"
	"github.com/hashicorp-forge/cms-gateway/internal/cmd/base"
	"github.com/hashicorp-forge/cms-gateway/internal/config"
	"github.com/hashicorp-forge/cms-gateway/internal/gateway"
	"github.com/hashicorp-forge/cms-gateway/internal/server"
	"github.com/hashicorp-forge/cms-gateway/pkg/provider"
	"github.com/hashicorp-forge/cms-gateway/pkg/transport"
)

const shutdownTimeout = 15 * time.Second

type Command struct {
	*base.Command

	// Fs is used to read the config file and collection manifest. Defaults
	// to the OS filesystem.
	Fs afero.Fs

	flagConfig   string
	flagEnvFile  string
	flagListen   string
	flagLogLevel string
	flagLogJSON  bool
}

func (c *Command) Synopsis() string {
	return "Run the gateway HTTP server"
}

func (c *Command) Help() string {
	return `Usage: cms-gateway serve [options]

  Serves GET /api/v1/{collection}/{providerId} for every provider listed in
  API_PROVIDERS. Configuration precedence is flags, then environment, then
  the HCL config file, then defaults.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("serve", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		fmt.Sprintf("[%s] Path to HCL config file", config.EnvConfigFile),
	)
	f.StringVar(
		&c.flagEnvFile, "env-file", ".env",
		"Path to a .env file loaded before reading the environment",
	)
	f.StringVar(
		&c.flagListen, "listen", "",
		fmt.Sprintf("[%s] Listen address (default %s)", config.EnvPort, config.DefaultListenAddress),
	)
	f.StringVar(
		&c.flagLogLevel, "log-level", "",
		fmt.Sprintf("[%s] Log level (trace, debug, info, warn, error)", config.EnvLogLevel),
	)
	f.BoolVar(
		&c.flagLogJSON, "log-json", false,
		"Emit logs as JSON",
	)

	return f
}

func (c *Command) Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.run(ctx, args, nil)
}

// run serves until ctx is done. If ready is non-nil it receives the bound
// listener address once the server accepts connections.
func (c *Command) run(ctx context.Context, args []string, ready chan<- string) int {
	ui := c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if err := config.LoadDotEnv(c.flagEnvFile); err != nil {
		ui.Error(err.Error())
		return 1
	}

	configPath := c.flagConfig
	if configPath == "" {
		configPath = os.Getenv(config.EnvConfigFile)
	}

	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	cfg, err := config.Load(fs, configPath)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}
	if f.IsSet("listen") {
		cfg.ListenAddress = c.flagListen
	}
	if f.IsSet("log-level") {
		cfg.LogLevel = c.flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		ui.Error(fmt.Sprintf("invalid configuration: %v", err))
		return 1
	}

	log := c.logger(cfg)

	reg, err := provider.LoadFromEnv(cfg.ProviderOptions())
	if err != nil {
		ui.Error(fmt.Sprintf("invalid provider configuration: %v", err))
		return 1
	}
	log.Info("loaded providers", "providers", strings.Join(reg.IDs(), ", "))

	handler, cleanup, err := buildHandler(cfg, fs, reg, log)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	defer cleanup()

	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		ui.Error(fmt.Sprintf("error listening on %s: %v", cfg.ListenAddress, err))
		return 1
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info("listening", "address", ln.Addr().String())
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("error shutting down server", "error", err)
			return 1
		}
	}

	log.Info("server stopped")
	return 0
}

func (c *Command) logger(cfg *config.Config) hclog.Logger {
	level := hclog.LevelFromString(cfg.LogLevel)
	if c.flagLogJSON {
		return hclog.New(&hclog.LoggerOptions{
			Name:       "cms-gateway",
			Level:      level,
			JSONFormat: true,
		})
	}

	c.Log.SetLevel(level)
	return c.Log
}

// buildHandler wires the gateway and its HTTP surface. cleanup releases the
// audit database, if one was opened.
func buildHandler(
	cfg *config.Config,
	fs afero.Fs,
	reg *provider.Registry,
	log hclog.Logger,
) (http.Handler, func(), error) {
	allowlist, err := cfg.Allowlist(fs)
	if err != nil {
		return nil, nil, fmt.Errorf("error building collection allowlist: %w", err)
	}
	log.Info("allowed collections", "collections", strings.Join(allowlist.Names(), ", "))

	tc, err := cfg.TransportConfig()
	if err != nil {
		return nil, nil, err
	}
	fetcher, err := transport.NewHTTPFetcher(tc)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	gwCfg := gateway.Config{
		Providers:   reg,
		Collections: allowlist,
		Fetcher:     fetcher,
		Logger:      log,
	}

	if cfg.Audit.Enabled {
		store, err := audit.Open(cfg.DatabaseConfig(), log)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening audit store: %w", err)
		}
		gwCfg.Recorder = store
		cleanup = func() {
			if err := store.Close(); err != nil {
				log.Warn("error closing audit store", "error", err)
			}
		}
		log.Info("audit trail enabled", "driver", cfg.Audit.Driver)
	}

	gw, err := gateway.New(gwCfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return api.NewRouter(server.Server{
		Gateway:   gw,
		Providers: reg,
		Logger:    log,
	}), cleanup, nil
}
