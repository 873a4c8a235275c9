// Package main is the entry point for the cutflow CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/quarkfold/cutflow/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	// Commands wrap every domain failure in an ExitError, so anything
	// unwrapped comes from cobra itself: unknown flags, missing
	// arguments, bad subcommands.
	os.Exit(cli.ExitCommandError)
}
