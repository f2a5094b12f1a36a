package version

import (
	"github.com/hashicorp-forge/cms-gateway/internal/cmd/base"
	"github.com/hashicorp-forge/cms-gateway/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: cms-gateway version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.HumanVersion())
	return 0
}
