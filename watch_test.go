//go:build linux || darwin

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchOutputsMissingDir(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	// EnsureDirs deliberately not called

	_, _, err := ws.WatchOutputs(context.Background())
	if err == nil {
		t.Fatal("WatchOutputs succeeded without an outputs directory")
	}

	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("error type = %T, want *OpError", err)
	}
	if opErr.Op != OpWatch {
		t.Errorf("Op = %v, want OpWatch", opErr.Op)
	}
}

func TestWatchOutputsEmitsArtifact(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	if err := ws.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, cleanup, err := ws.WatchOutputs(ctx)
	if err != nil {
		t.Fatalf("WatchOutputs: %v", err)
	}
	defer func() { _ = cleanup() }()

	artifact := filepath.Join(ws.OutputsDir(), "face_0001_realistic_vision.png")
	if err := os.WriteFile(artifact, []byte("png"), 0o644); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Err != nil {
			t.Fatalf("event error: %v", ev.Err)
		}
		if ev.Path != artifact {
			t.Errorf("Path = %q, want %q", ev.Path, artifact)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for artifact event")
	}
}

func TestWatchOutputsDebouncesWrites(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	if err := ws.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, cleanup, err := ws.WatchOutputs(ctx)
	if err != nil {
		t.Fatalf("WatchOutputs: %v", err)
	}
	defer func() { _ = cleanup() }()

	// A burst of writes to the same file must coalesce into one event
	artifact := filepath.Join(ws.OutputsDir(), "streamed.png")
	f, err := os.Create(artifact)
	if err != nil {
		t.Fatalf("creating artifact: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.Write([]byte("chunk")); err != nil {
			t.Fatalf("writing chunk: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	_ = f.Close()

	got := 0
	deadline := time.After(2 * DefaultArtifactDebounce)
collect:
	for {
		select {
		case ev := <-events:
			if ev.Err == nil && ev.Path == artifact {
				got++
			}
		case <-deadline:
			break collect
		}
	}
	if got != 1 {
		t.Errorf("events for one artifact = %d, want 1", got)
	}
}

func TestWatchOutputsStopDuringDebounce(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	if err := ws.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	events, cleanup, err := ws.WatchOutputs(context.Background())
	if err != nil {
		t.Fatalf("WatchOutputs: %v", err)
	}

	// Stop while an artifact's debounce timer is still pending; the timer
	// firing around the stop must not reach the closed events channel
	artifact := filepath.Join(ws.OutputsDir(), "late.png")
	if err := os.WriteFile(artifact, []byte("png"), 0o644); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	deadline := time.After(2 * DefaultArtifactDebounce)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			return
		}
	}
}

func TestWatchOutputsCleanup(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	if err := ws.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	events, cleanup, err := ws.WatchOutputs(context.Background())
	if err != nil {
		t.Fatalf("WatchOutputs: %v", err)
	}

	// Cleanup must not hang and must close the channel
	done := make(chan error, 1)
	go func() {
		done <- cleanup()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cleanup error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup hung")
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Error("received event after cleanup, channel not closed")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after cleanup")
	}
}
