package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// ArtifactEvent reports a file appearing or changing in the outputs
// directory while a run is in progress.
type ArtifactEvent struct {
	// Path is the artifact path
	Path string
	// Err carries watcher errors; Path is empty when Err is set
	Err error
}

// WatchCleanupFunc stops a watch and releases its resources
type WatchCleanupFunc func() error

// DefaultArtifactDebounce coalesces the write bursts the enhancement
// scripts produce while streaming an image to disk.
const DefaultArtifactDebounce = 250 * time.Millisecond

// WatchOutputs watches the outputs directory and emits an event for each
// artifact once its writes settle. The returned cleanup function must be
// called to stop the watch; cancelling the context also stops it.
func (w *Workspace) WatchOutputs(ctx context.Context) (<-chan ArtifactEvent, WatchCleanupFunc, error) {
	outputs := w.OutputsDir()
	if _, err := os.Stat(outputs); err != nil {
		return nil, nil, &OpError{Op: OpWatch, Path: outputs, Err: err}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, &OpError{Op: OpWatch, Path: outputs, Err: err}
	}
	if err := watcher.Add(outputs); err != nil {
		_ = watcher.Close()
		return nil, nil, &OpError{Op: OpWatch, Path: outputs, Err: err}
	}

	ch := make(chan ArtifactEvent, 10)

	// Stopper context manages the watcher goroutine lifecycle
	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
		close(ch)
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	// Per-path debouncers; an artifact is reported once its writes settle.
	// Timers hand the settled path back to the watch goroutine through fire
	// rather than sending on ch themselves, so no timer callback can race
	// the close of ch at stop time.
	fire := make(chan string, 10)
	pending := make(map[string]*time.Timer)

	sctx.Go(func(sctx *stopper.Context) error {
		sctx.Defer(func() {
			for _, t := range pending {
				t.Stop()
			}
		})

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case path := <-fire:
				delete(pending, path)
				select {
				case ch <- ArtifactEvent{Path: path}:
				case <-sctx.Stopping():
					return nil
				}

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				// Directories created mid-run are not artifacts
				if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
					continue
				}
				path := filepath.Clean(event.Name)

				if t, exists := pending[path]; exists {
					t.Stop()
				}
				pending[path] = time.AfterFunc(DefaultArtifactDebounce, func() {
					select {
					case fire <- path:
					case <-sctx.Stopping():
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil && !sctx.IsStopping() {
					select {
					case ch <- ArtifactEvent{Err: err}:
					case <-sctx.Stopping():
						return nil
					}
				}
			}
		}
		return nil
	})

	return ch, cleanup, nil
}
