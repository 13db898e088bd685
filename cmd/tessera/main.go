// Package main is the entry point for the Tessera CLI.
package main

import (
	"os"

	"github.com/mrz1836/tessera/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // set by the linker

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
