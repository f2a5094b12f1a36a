package main

import (
	"os"

	"github.com/hashicorp-forge/cms-gateway/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
