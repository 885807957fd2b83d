// Command schemac compiles declarative schemas into object models.
package main

import (
	"os"

	"github.com/roach88/schemac/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := cli.NewRootCommand().Execute(); err != nil {
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
