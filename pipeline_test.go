//go:build linux || darwin

package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// testPipeline assembles a Pipeline around a real short-lived server
// process, a scripted executor for tasks, and an injectable probe.
func testPipeline(t *testing.T, serverCmd string, probeErr error) (*Pipeline, *fakeExecutor) {
	t.Helper()

	ws := NewWorkspace(t.TempDir())
	exec := newFakeExecutor()

	launcher := NewLauncher(t.TempDir(), "/bin/sh", []string{"-c", serverCmd},
		WithLogPath(ws.WebUILogPath()),
		WithPIDPath(ws.PIDPath()),
		WithStopGrace(100*time.Millisecond),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = launcher.Stop(ctx)
	})

	poller := NewPoller(WithMaxAttempts(3), WithProbeInterval(time.Millisecond))
	poller.probe = func(context.Context) error { return probeErr }
	poller.sleep = func(context.Context, time.Duration) error { return nil }

	p := &Pipeline{
		Workspace: ws,
		Launcher:  launcher,
		Poller:    poller,
		Runner:    NewRunner(exec),
		Tasks:     DefaultTasks(TaskConfig{OutputsDir: ws.OutputsDir(), PerImage: 1}),
		Manifest:  NewRunManifest(DefaultModels(), 1),
	}
	return p, exec
}

func TestPipelineRunSuccess(t *testing.T) {
	p, exec := testPipeline(t, "sleep 0.3", nil)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.ServerExit != 0 {
		t.Errorf("ServerExit = %d, want 0", result.ServerExit)
	}
	if len(result.Tasks) != 3 {
		t.Errorf("task results = %d, want 3", len(result.Tasks))
	}
	if got := len(exec.ran()); got != 3 {
		t.Errorf("task commands = %d, want 3", got)
	}

	// The run manifest must be on disk
	m, err := p.Workspace.ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if m.RunID != result.RunID {
		t.Errorf("manifest RunID = %q, want %q", m.RunID, result.RunID)
	}
}

func TestPipelineReadinessTimeoutStopsServer(t *testing.T) {
	p, exec := testPipeline(t, "sleep 60", errors.New("connection refused"))

	_, err := p.Run(context.Background())
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("error = %v, want ErrNotReady", err)
	}

	// No task may have run, and the server must not be left behind
	if got := len(exec.ran()); got != 0 {
		t.Errorf("task commands after timeout = %d, want 0", got)
	}
	if p.Launcher.Running() {
		t.Error("server still running after readiness timeout")
	}
}

func TestPipelineTaskFailureStopsServer(t *testing.T) {
	p, exec := testPipeline(t, "sleep 60", nil)
	exec.setResult("python3 pipelines/process_faces.py --model realistic_vision", fakeOutcome{exitCode: 1})

	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run succeeded, want task failure")
	}
	if got := len(exec.ran()); got != 1 {
		t.Errorf("task commands = %d, want 1 (fail-fast)", got)
	}
	if p.Launcher.Running() {
		t.Error("server still running after task failure")
	}
}

func TestPipelineKeepServingLeavesServer(t *testing.T) {
	p, _ := testPipeline(t, "sleep 60", errors.New("connection refused"))
	p.KeepServing = true

	_, err := p.Run(context.Background())
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("error = %v, want ErrNotReady", err)
	}
	if !p.Launcher.Running() {
		t.Error("server stopped despite KeepServing")
	}
}

func TestPipelineBootstrapFailureAborts(t *testing.T) {
	p, exec := testPipeline(t, "sleep 60", nil)
	bootExec := newFakeExecutor()
	bootExec.setResult("pip3 install", fakeOutcome{exitCode: 1})
	p.Bootstrap = NewBootstrap(bootExec)

	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run succeeded, want bootstrap failure")
	}

	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("error type = %T, want *OpError", err)
	}
	if opErr.Op != OpInstall {
		t.Errorf("Op = %v, want OpInstall", opErr.Op)
	}
	if got := len(exec.ran()); got != 0 {
		t.Errorf("task commands = %d, want 0", got)
	}
	if p.Launcher.PID() != 0 {
		t.Error("server launched despite bootstrap failure")
	}
}

func TestPipelineCreatesWorkspace(t *testing.T) {
	p, _ := testPipeline(t, "sleep 0.2", nil)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for _, dir := range []string{p.Workspace.InputDir(), p.Workspace.OutputsDir(), p.Workspace.LogsDir()} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("missing workspace dir %s: %v", dir, err)
		}
	}
}

func TestNewPipelineDefaults(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	p := New(ws, TaskConfig{})

	if p.Bootstrap == nil || p.Launcher == nil || p.Poller == nil || p.Runner == nil {
		t.Fatal("New left phases unset")
	}
	if len(p.Tasks) != 3 {
		t.Errorf("tasks = %d, want 3", len(p.Tasks))
	}
	if p.Poller.MaxAttempts != DefaultProbeAttempts {
		t.Errorf("MaxAttempts = %d, want %d", p.Poller.MaxAttempts, DefaultProbeAttempts)
	}
	if p.Manifest.RunID == "" {
		t.Error("Manifest.RunID empty")
	}
}
