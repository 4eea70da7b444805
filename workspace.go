package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

// Workspace is the fixed set of directories used for input, output, and
// log artifacts. Directory creation is idempotent; the directories outlive
// any single run.
type Workspace struct {
	// Root is the workspace root directory
	Root string
}

// NewWorkspace creates a Workspace rooted at root. An empty root uses the
// default pod layout.
func NewWorkspace(root string) *Workspace {
	if root == "" {
		root = DefaultWorkspaceRoot
	}
	return &Workspace{Root: root}
}

// InputDir returns the source image directory.
func (w *Workspace) InputDir() string {
	return filepath.Join(w.Root, InputDirName)
}

// OutputsDir returns the enhanced image directory.
func (w *Workspace) OutputsDir() string {
	return filepath.Join(w.Root, OutputsDirName)
}

// LogsDir returns the log directory.
func (w *Workspace) LogsDir() string {
	return filepath.Join(w.Root, LogsDirName)
}

// WebUILogPath returns the path the launcher redirects WebUI output to.
func (w *Workspace) WebUILogPath() string {
	return filepath.Join(w.LogsDir(), WebUILogName)
}

// PIDPath returns the path of the background process pidfile.
func (w *Workspace) PIDPath() string {
	return filepath.Join(w.LogsDir(), PIDFileName)
}

// ManifestPath returns the path of the per-run manifest.
func (w *Workspace) ManifestPath() string {
	return filepath.Join(w.LogsDir(), ManifestName)
}

// EnsureDirs creates the input, outputs, and logs directories, including
// parents. It succeeds whether or not they already exist.
func (w *Workspace) EnsureDirs() error {
	for _, dir := range []string{w.InputDir(), w.OutputsDir(), w.LogsDir()} {
		if err := os.MkdirAll(dir, DirMode); err != nil {
			return &OpError{Op: OpWorkspace, Path: dir, Err: err}
		}
	}
	return nil
}

// RunManifest records what a pipeline run was asked to do. It is written
// at launch time so a run that dies later still leaves a trace.
type RunManifest struct {
	// RunID uniquely identifies the run
	RunID string `json:"run_id"`
	// StartedAt is when the run began
	StartedAt time.Time `json:"started_at"`
	// Models lists the enhancement models in execution order
	Models []string `json:"models"`
	// PerImage is the number of variations per source image
	PerImage int `json:"per_image"`
}

// NewRunManifest creates a manifest with a fresh run ID.
func NewRunManifest(models []string, perImage int) RunManifest {
	return RunManifest{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Models:    models,
		PerImage:  perImage,
	}
}

// WriteManifest atomically writes the run manifest into the logs directory.
func (w *Workspace) WriteManifest(m RunManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return &OpError{Op: OpWorkspace, Path: w.ManifestPath(), Err: err}
	}
	if err := renameio.WriteFile(w.ManifestPath(), data, FileMode); err != nil {
		return &OpError{Op: OpWorkspace, Path: w.ManifestPath(), Err: err}
	}
	return nil
}

// ReadManifest loads the most recently written run manifest.
func (w *Workspace) ReadManifest() (RunManifest, error) {
	data, err := os.ReadFile(w.ManifestPath())
	if err != nil {
		return RunManifest{}, &OpError{Op: OpWorkspace, Path: w.ManifestPath(), Err: err}
	}
	var m RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return RunManifest{}, &OpError{Op: OpWorkspace, Path: w.ManifestPath(), Err: err}
	}
	return m, nil
}
