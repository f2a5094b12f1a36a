package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/cms-gateway/internal/cmd/base"
	"github.com/hashicorp-forge/cms-gateway/internal/cmd/commands/audit"
	"github.com/hashicorp-forge/cms-gateway/internal/cmd/commands/providers"
	"github.com/hashicorp-forge/cms-gateway/internal/cmd/commands/serve"
	"github.com/hashicorp-forge/cms-gateway/internal/cmd/commands/version"
)

// Commands returns the command factories of the CLI.
func Commands(log hclog.Logger, ui cli.Ui) map[string]cli.CommandFactory {
	b := base.NewCommand(log, ui)

	return map[string]cli.CommandFactory{
		"audit": func() (cli.Command, error) {
			return &audit.Command{Command: b}, nil
		},
		"providers": func() (cli.Command, error) {
			return &providers.Command{Command: b}, nil
		},
		"serve": func() (cli.Command, error) {
			return &serve.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
