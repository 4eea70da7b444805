//go:build linux || darwin

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLocalExecutorRun(t *testing.T) {
	exec := NewLocalExecutor()

	res, err := exec.Run(context.Background(), Cmd{
		Program: "/bin/sh",
		Args:    []string{"-c", "echo out; echo err >&2"},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !res.Ok() {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "out")
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "err")
	}
}

func TestLocalExecutorNonZeroExit(t *testing.T) {
	exec := NewLocalExecutor()

	res, err := exec.Run(context.Background(), Cmd{
		Program: "/bin/sh",
		Args:    []string{"-c", "exit 3"},
	})
	if err != nil {
		t.Fatalf("non-zero exit must not be a Run error, got: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestLocalExecutorMissingBinary(t *testing.T) {
	exec := NewLocalExecutor()

	_, err := exec.Run(context.Background(), Cmd{Program: "/nonexistent/binary"})
	if err == nil {
		t.Fatal("Run succeeded for missing binary")
	}

	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("error type = %T, want *OpError", err)
	}
	if opErr.Op != OpExec {
		t.Errorf("Op = %v, want OpExec", opErr.Op)
	}
}

func TestLocalExecutorWorkingDir(t *testing.T) {
	exec := NewLocalExecutor()
	dir := t.TempDir()

	res, err := exec.Run(context.Background(), Cmd{Program: "pwd", Dir: dir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := strings.TrimSpace(res.Stdout); got != dir {
		t.Errorf("pwd = %q, want %q", got, dir)
	}
}

func TestLocalExecutorEnv(t *testing.T) {
	exec := NewLocalExecutor()
	exec.Env = []string{"PIPE_BASE=base"}

	res, err := exec.Run(context.Background(), Cmd{
		Program: "/bin/sh",
		Args:    []string{"-c", "echo $PIPE_BASE $PIPE_CMD"},
		Env:     []string{"PIPE_CMD=cmd"},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := strings.TrimSpace(res.Stdout); got != "base cmd" {
		t.Errorf("env output = %q, want %q", got, "base cmd")
	}
}

func TestLocalExecutorContextCancel(t *testing.T) {
	exec := NewLocalExecutor()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := exec.Run(ctx, Cmd{Program: "/bin/sh", Args: []string{"-c", "sleep 30"}})
	if err == nil {
		t.Fatal("Run survived context cancellation")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %v, child group not killed", elapsed)
	}
}

func TestLocalExecutorLookPath(t *testing.T) {
	exec := NewLocalExecutor()

	if _, err := exec.LookPath(context.Background(), "sh"); err != nil {
		t.Errorf("LookPath(sh) returned error: %v", err)
	}
	if _, err := exec.LookPath(context.Background(), "definitely-not-a-binary"); err == nil {
		t.Error("LookPath succeeded for a missing binary")
	}
}
