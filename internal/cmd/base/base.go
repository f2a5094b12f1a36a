// Package base holds what every CLI command shares.
package base

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by every command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui
}

// NewCommand returns a Command writing to ui and logging to log.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Command{Log: log, UI: ui}
}

// FlagSet wraps a flag.FlagSet so help output is rendered consistently.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet returns a FlagSet. Parse errors are returned to the caller
// instead of being printed.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(io.Discard)
	return &FlagSet{FlagSet: f}
}

// Help renders the options section of a command's help text.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	buf.WriteString("\n\nOptions:\n")

	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&buf, "\n  -%s", fl.Name)
		if fl.DefValue != "" {
			fmt.Fprintf(&buf, "=%s", fl.DefValue)
		}
		fmt.Fprintf(&buf, "\n    %s\n", strings.ReplaceAll(fl.Usage, "\n", "\n    "))
	})

	return strings.TrimRight(buf.String(), "\n")
}

// IsSet reports whether the named flag was given on the command line.
func (f *FlagSet) IsSet(name string) bool {
	set := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}
