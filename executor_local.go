package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/hyperrealistic/go-pipeline/internal/proc"
)

// LocalExecutor runs commands as child processes of the current process.
// Children are placed in their own process group so that cancelling the
// context tears down the whole command tree, not just the direct child.
type LocalExecutor struct {
	// Env contains additional KEY=VALUE pairs applied to every command
	Env []string
}

// NewLocalExecutor creates a LocalExecutor.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{}
}

// Run executes the command locally and captures its output.
func (e *LocalExecutor) Run(ctx context.Context, c Cmd) (ExecResult, error) {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), append(e.Env, c.Env...)...)
	cmd.SysProcAttr = proc.GroupAttr()
	cmd.Cancel = func() error {
		return proc.SignalGroup(cmd.Process.Pid, proc.SigKill)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, &OpError{Op: OpExec, Path: c.Program, Err: ctxErr}
	}
	return res, &OpError{Op: OpExec, Path: c.Program, Err: err}
}

// LookPath resolves a binary on the local PATH.
func (e *LocalExecutor) LookPath(_ context.Context, name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", &OpError{Op: OpExec, Path: name, Err: err}
	}
	return path, nil
}
