package audit

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/cms-gateway/internal/audit"
	"github.com/hashicorp-forge/cms-gateway/internal/cmd/base"
	"github.com/hashicorp-forge/cms-gateway/internal/config"
)

type Command struct {
	*base.Command

	// Fs is used to read the config file. Defaults to the OS filesystem.
	Fs afero.Fs

	flagConfig   string
	flagEnvFile  string
	flagProvider string
	flagLimit    int
}

func (c *Command) Synopsis() string {
	return "List recent requests from the audit trail"
}

func (c *Command) Help() string {
	return `Usage: cms-gateway audit [options]

  Prints the most recent requests recorded by the audit trail, newest first.
  Uses the audit block of the config file to locate the database.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("audit", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		fmt.Sprintf("[%s] Path to HCL config file", config.EnvConfigFile),
	)
	f.StringVar(
		&c.flagEnvFile, "env-file", ".env",
		"Path to a .env file loaded before reading the environment",
	)
	f.StringVar(
		&c.flagProvider, "provider", "",
		"Only show requests for this provider ID",
	)
	f.IntVar(
		&c.flagLimit, "limit", 20,
		"Maximum number of entries to print",
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
	if c.flagLimit < 1 {
		ui.Error("limit must be at least 1")
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

	store, err := audit.Open(cfg.DatabaseConfig(), c.Log)
	if err != nil {
		ui.Error(fmt.Sprintf("error opening audit store: %v", err))
		return 1
	}
	defer store.Close()

	logs, err := store.Recent(context.Background(), c.flagProvider, c.flagLimit)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	for _, l := range logs {
		line := fmt.Sprintf("%s\t%s\t%s/%s\t%d\t%dms",
			l.CreatedAt.UTC().Format(time.RFC3339), l.RequestID,
			l.Collection, l.ProviderID, l.StatusCode, l.DurationMs)
		if l.Error != "" {
			line += "\t" + l.Error
		}
		ui.Output(line)
	}
	if len(logs) == 0 {
		ui.Info("no requests recorded")
	}

	return 0
}
