package providers

import (
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/cms-gateway/internal/cmd/base"
	"github.com/hashicorp-forge/cms-gateway/internal/config"
	"github.com/hashicorp-forge/cms-gateway/pkg/provider"
)

type Command struct {
	*base.Command

	// Fs is used to read the config file. Defaults to the OS filesystem.
	Fs afero.Fs

	flagConfig  string
	flagEnvFile string
	flagStrict  bool
}

func (c *Command) Synopsis() string {
	return "Validate API_PROVIDERS and list the configured providers"
}

func (c *Command) Help() string {
	return `Usage: cms-gateway providers

  Loads and validates the API_PROVIDERS environment variable without starting
  the server, then prints the identifier, display name and endpoint host of
  every provider. Tokens are never printed.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("providers", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		fmt.Sprintf("[%s] Path to HCL config file", config.EnvConfigFile),
	)
	f.StringVar(
		&c.flagEnvFile, "env-file", ".env",
		"Path to a .env file loaded before reading the environment",
	)
	f.BoolVar(
		&c.flagStrict, "strict", false,
		"Require a display name on every provider (overrides strict_providers)",
	)

	return f
}

func (c *Command) Run(args []string) int {
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

	opts := cfg.ProviderOptions()
	if f.IsSet("strict") {
		opts.RequireName = c.flagStrict
	}

	reg, err := provider.LoadFromEnv(opts)
	if err != nil {
		ui.Error(fmt.Sprintf("invalid provider configuration: %v", err))
		return 1
	}

	for _, p := range reg.All() {
		ui.Output(fmt.Sprintf("%s\t%s\t%s", p.ID, displayName(p), host(p.Endpoint)))
	}
	ui.Info(fmt.Sprintf("%d provider(s) loaded", reg.Len()))

	return 0
}

func displayName(p provider.Config) string {
	if p.Name == "" {
		return "-"
	}
	return p.Name
}

func host(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "-"
	}
	return u.Host
}
