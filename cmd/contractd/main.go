// contractd CLI - contract tests and stubs from API contracts
package main

import (
	"os"

	"github.com/getmockd/contractd/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func run() int {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	return cli.Run(os.Args[1:], os.Stdout, os.Stderr)
}

func main() {
	os.Exit(run())
}
