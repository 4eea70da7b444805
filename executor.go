package pipeline

import (
	"context"
	"strings"
)

// Cmd describes a single command to run through an Executor.
type Cmd struct {
	// Program is the binary to invoke
	Program string
	// Args are the program arguments
	Args []string
	// Dir is the working directory; empty means the executor default
	Dir string
	// Env contains additional KEY=VALUE pairs appended to the base environment
	Env []string
}

// String renders the command for logs and error messages.
func (c Cmd) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}

// ExecResult holds the outcome of a completed command.
type ExecResult struct {
	// ExitCode is the process exit status; zero on success
	ExitCode int
	// Stdout is the captured standard output
	Stdout string
	// Stderr is the captured standard error
	Stderr string
}

// Ok reports whether the command exited zero.
func (r ExecResult) Ok() bool {
	return r.ExitCode == 0
}

// Executor runs commands either on the local machine or on a remote pod.
// It is the seam that lets the same pipeline phases drive both: Run returns
// an error only when the command could not be executed at all (missing
// binary, broken transport); a command that ran and exited non-zero is
// reported through ExecResult.ExitCode with a nil error.
type Executor interface {
	// Run executes the command and blocks until it exits
	Run(ctx context.Context, cmd Cmd) (ExecResult, error)

	// LookPath resolves a binary name on the executor's search path
	LookPath(ctx context.Context, name string) (string, error)
}
