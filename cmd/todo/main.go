package main

import (
	"os"

	"github.com/Makepad-fr/tada/internal/cli"
)

func main() {
	// Root flags, config files and env are resolved by the CLI runner.
	os.Exit(cli.Main(os.Args[1:], os.Stdout, os.Stderr))
}
