package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	exitOK                 = 0
	exitFailure            = 1
	exitMissingCredentials = 2
)

// exitError carries the process exit code out of a command.
// reported is set when the user has already been told what went wrong.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the exit code
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if !exitErr.reported {
			fmt.Fprintln(stderr, "Error:", exitErr.err)
		}
		return exitErr.code
	}

	// flag parsing and other cobra errors
	fmt.Fprintln(stderr, "Error:", err)
	return exitFailure
}
