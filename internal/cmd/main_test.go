package cmd

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	cmds := Commands(hclog.NewNullLogger(), cli.NewMockUi())

	for _, name := range []string{"audit", "providers", "serve", "version"} {
		factory, ok := cmds[name]
		require.True(t, ok, name)

		c, err := factory()
		require.NoError(t, err)
		assert.NotEmpty(t, c.Synopsis(), name)
		assert.Contains(t, c.Help(), "Usage: cms-gateway "+name)
	}
}

func TestMain_Version(t *testing.T) {
	assert.Equal(t, 0, Main([]string{"cms-gateway", "-version"}))
	assert.Equal(t, 0, Main([]string{"cms-gateway", "version"}))
}

func TestMain_UnknownCommand(t *testing.T) {
	assert.Equal(t, 127, Main([]string{"cms-gateway", "bogus"}))
}
