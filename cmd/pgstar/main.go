// Package main provides the pgstar CLI.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pgstar/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pgstar:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
