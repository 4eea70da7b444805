package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/hyperrealistic/go-pipeline/internal/proc"
)

// Launcher starts the WebUI entry point as a detached background process
// and owns its handle for the rest of the run. There is no validation that
// the process came up beyond the subsequent readiness poll; a process that
// crashes immediately is detected when the poll times out.
//
// Unlike the process it supervises, the Launcher itself is not long-lived:
// one Launcher manages exactly one Start/Stop cycle.
type Launcher struct {
	// Dir is the working directory for the process (the WebUI checkout)
	Dir string

	// Program is the runtime binary used to launch the entry point
	Program string

	// Args are the launch arguments, beginning with the entry point
	Args []string

	// Env contains additional KEY=VALUE pairs for the process
	Env []string

	// LogPath receives the process stdout and stderr; empty discards output
	LogPath string

	// PIDPath, when set, receives the process ID as an atomically written file
	PIDPath string

	// StopGrace is how long Stop waits after SIGTERM before escalating
	StopGrace time.Duration

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
	exit int
}

// LauncherOption configures a Launcher
type LauncherOption func(*Launcher)

// WithLauncherEnv sets additional environment for the launched process
func WithLauncherEnv(env []string) LauncherOption {
	return func(l *Launcher) {
		l.Env = env
	}
}

// WithLogPath redirects process output to the given file
func WithLogPath(path string) LauncherOption {
	return func(l *Launcher) {
		l.LogPath = path
	}
}

// WithPIDPath records the process ID at the given path
func WithPIDPath(path string) LauncherOption {
	return func(l *Launcher) {
		l.PIDPath = path
	}
}

// WithStopGrace sets the SIGTERM-to-SIGKILL escalation delay
func WithStopGrace(d time.Duration) LauncherOption {
	return func(l *Launcher) {
		l.StopGrace = d
	}
}

// NewLauncher creates a Launcher for the given working directory and
// command. Most callers want NewWebUILauncher, which bakes in the fixed
// pod layout.
func NewLauncher(dir string, program string, args []string, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		Dir:       dir,
		Program:   program,
		Args:      args,
		StopGrace: DefaultStopGrace,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewWebUILauncher creates a Launcher with the fixed pod layout: the WebUI
// checkout, its launch.py entry point, and log/pid files in the workspace.
func NewWebUILauncher(ws *Workspace, opts ...LauncherOption) *Launcher {
	args := []string{
		DefaultWebUIEntry,
		"--api",
		"--listen",
		"--port", strconv.Itoa(DefaultWebUIPort),
	}
	base := []LauncherOption{
		WithLogPath(ws.WebUILogPath()),
		WithPIDPath(ws.PIDPath()),
	}
	return NewLauncher(DefaultWebUIDir, DefaultRuntimePath, args, append(base, opts...)...)
}

// Start launches the process in the background, records its handle, and
// returns without waiting for it to become ready.
func (l *Launcher) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cmd != nil {
		return &OpError{Op: OpLaunch, Path: l.Program, Err: ErrAlreadyLaunched}
	}
	if err := ctx.Err(); err != nil {
		return &OpError{Op: OpLaunch, Path: l.Program, Err: err}
	}

	cmd := exec.Command(l.Program, l.Args...)
	cmd.Dir = l.Dir
	cmd.Env = append(os.Environ(), l.Env...)
	cmd.SysProcAttr = proc.GroupAttr()

	var logFile *os.File
	if l.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(l.LogPath), DirMode); err != nil {
			return &OpError{Op: OpLaunch, Path: l.LogPath, Err: err}
		}
		f, err := os.OpenFile(l.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, FileMode)
		if err != nil {
			return &OpError{Op: OpLaunch, Path: l.LogPath, Err: err}
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return &OpError{Op: OpLaunch, Path: l.Program, Err: err}
	}

	if l.PIDPath != "" {
		pid := []byte(strconv.Itoa(cmd.Process.Pid) + "\n")
		if err := renameio.WriteFile(l.PIDPath, pid, FileMode); err != nil {
			// The process is already running; kill it rather than leak it.
			_ = proc.SignalGroup(cmd.Process.Pid, proc.SigKill)
			_ = cmd.Wait()
			if logFile != nil {
				_ = logFile.Close()
			}
			return &OpError{Op: OpLaunch, Path: l.PIDPath, Err: err}
		}
	}

	l.cmd = cmd
	l.done = make(chan struct{})

	go func() {
		err := cmd.Wait()
		l.mu.Lock()
		l.exit = exitCode(err)
		l.mu.Unlock()
		if logFile != nil {
			_ = logFile.Close()
		}
		close(l.done)
	}()

	return nil
}

// exitCode extracts a process exit code from cmd.Wait's error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// PID returns the process ID, or zero if the process was never started.
func (l *Launcher) PID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cmd == nil || l.cmd.Process == nil {
		return 0
	}
	return l.cmd.Process.Pid
}

// Running reports whether the process has been started and not yet exited.
func (l *Launcher) Running() bool {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Wait blocks until the process exits or the context is cancelled,
// returning the process exit code. This is the supervision terminal of a
// run: once the tasks finish, the run's fate is the server's fate.
func (l *Launcher) Wait(ctx context.Context) (int, error) {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done == nil {
		return 0, &OpError{Op: OpWait, Path: l.Program, Err: ErrNotLaunched}
	}

	select {
	case <-done:
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.exit, nil
	case <-ctx.Done():
		return 0, &OpError{Op: OpWait, Path: l.Program, Err: ctx.Err()}
	}
}

// Stop terminates the background process group: SIGTERM first, then
// SIGKILL after the grace period. Stop is safe to call on every exit path;
// it returns nil if the process already exited and ErrNotLaunched if it
// was never started.
func (l *Launcher) Stop(ctx context.Context) error {
	l.mu.Lock()
	cmd := l.cmd
	done := l.done
	l.mu.Unlock()

	if cmd == nil {
		return &OpError{Op: OpStop, Path: l.Program, Err: ErrNotLaunched}
	}
	select {
	case <-done:
		return nil
	default:
	}

	pid := cmd.Process.Pid
	if err := proc.SignalGroup(pid, proc.SigTerm); err != nil {
		// Fall back to signalling just the leader; the group may already
		// be gone on some kernels while the leader lingers as a zombie.
		_ = cmd.Process.Signal(os.Interrupt)
	}

	grace := l.StopGrace
	if grace <= 0 {
		grace = DefaultStopGrace
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		_ = proc.SignalGroup(pid, proc.SigKill)
		return &OpError{Op: OpStop, Path: l.Program, Err: ctx.Err()}
	case <-timer.C:
	}

	if err := proc.SignalGroup(pid, proc.SigKill); err != nil {
		return &OpError{Op: OpStop, Path: l.Program, Err: fmt.Errorf("kill pid %d: %w", pid, err)}
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return &OpError{Op: OpStop, Path: l.Program, Err: ctx.Err()}
	}
}
