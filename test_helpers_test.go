package pipeline

import (
	"context"
	"strings"
	"sync"
)

// fakeExecutor records every command it is asked to run and replies from
// a scripted set of outcomes.
type fakeExecutor struct {
	mu sync.Mutex

	// commands records every Run invocation in order
	commands []Cmd

	// results maps a command prefix (program + first args) to an outcome;
	// unmatched commands succeed with exit 0
	results map[string]fakeOutcome

	// missing lists binary names LookPath fails to resolve
	missing map[string]bool
}

type fakeOutcome struct {
	exitCode int
	stdout   string
	err      error
	// failures is how many times the command fails before succeeding;
	// used for retry tests. Ignored when zero.
	failures int
	seen     int
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		results: make(map[string]fakeOutcome),
		missing: make(map[string]bool),
	}
}

func (f *fakeExecutor) setResult(prefix string, outcome fakeOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[prefix] = outcome
}

func (f *fakeExecutor) ran() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.commands))
	for i, c := range f.commands {
		lines[i] = c.String()
	}
	return lines
}

func (f *fakeExecutor) Run(_ context.Context, c Cmd) (ExecResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, c)

	line := c.String()
	for prefix, outcome := range f.results {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		if outcome.failures > 0 {
			outcome.seen++
			f.results[prefix] = outcome
			if outcome.seen > outcome.failures {
				return ExecResult{Stdout: outcome.stdout}, nil
			}
		}
		return ExecResult{ExitCode: outcome.exitCode, Stdout: outcome.stdout}, outcome.err
	}
	return ExecResult{}, nil
}

func (f *fakeExecutor) LookPath(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[name] {
		return "", &OpError{Op: OpExec, Path: name, Err: ErrToolMissing}
	}
	return "/usr/bin/" + name, nil
}
