// Package main provides the entry point for goldtodo-cli.
//
// goldtodo-cli manages todos on a goldtodo server and inspects its health
// and golden signal metrics.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/goldtodo/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
