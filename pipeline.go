package pipeline

import (
	"context"
)

// Pipeline wires the phases of a full run together: bootstrap, workspace
// initialization, background WebUI launch, readiness poll, sequential task
// execution, and final supervision of the server process.
//
// Unless KeepServing is set, the Pipeline guarantees the background server
// is terminated on every exit path (success, readiness timeout, or task
// failure), so a failed run never leaves an unmanaged process behind.
type Pipeline struct {
	// Bootstrap provisions the runtime; nil skips provisioning
	Bootstrap *Bootstrap

	// Workspace holds the input/outputs/logs directories
	Workspace *Workspace

	// Launcher owns the background WebUI process
	Launcher *Launcher

	// Poller probes the WebUI for readiness
	Poller *Poller

	// Runner executes the processing tasks
	Runner *Runner

	// Tasks is the ordered processing sequence
	Tasks []Task

	// Manifest describes the run; it is written to the workspace before
	// the server launches
	Manifest RunManifest

	// KeepServing leaves the WebUI running after a failed phase so the
	// operator can inspect the live UI
	KeepServing bool
}

// Result summarizes a completed pipeline run.
type Result struct {
	// RunID is the manifest run identifier
	RunID string

	// ProbeAttempts is the readiness probe count at success
	ProbeAttempts int

	// Tasks holds per-task outcomes in execution order
	Tasks []TaskResult

	// ServerExit is the exit code the supervised WebUI process returned
	ServerExit int
}

// New assembles a Pipeline with standard defaults on top of the given
// workspace: local execution, the fixed WebUI launch, the standard probe
// budget, and the default task sequence.
func New(ws *Workspace, cfg TaskConfig) *Pipeline {
	if ws == nil {
		ws = NewWorkspace("")
	}
	if cfg.OutputsDir == "" {
		cfg.OutputsDir = ws.OutputsDir()
	}
	exec := NewLocalExecutor()
	models := cfg.Models
	if len(models) == 0 {
		models = DefaultModels()
	}
	perImage := cfg.PerImage
	if perImage <= 0 {
		perImage = 1
	}
	return &Pipeline{
		Bootstrap: NewBootstrap(exec),
		Workspace: ws,
		Launcher:  NewWebUILauncher(ws),
		Poller:    NewPoller(),
		Runner:    NewRunner(exec),
		Tasks:     DefaultTasks(cfg),
		Manifest:  NewRunManifest(models, perImage),
	}
}

// Run executes the full flow. The server is stopped on failure paths
// unless KeepServing is set; on the success path Run blocks until the
// server exits and reports its exit code.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	result := Result{RunID: p.Manifest.RunID}

	if p.Bootstrap != nil {
		if err := p.Bootstrap.Run(ctx); err != nil {
			return result, err
		}
	}

	if err := p.Workspace.EnsureDirs(); err != nil {
		return result, err
	}
	if err := p.Workspace.WriteManifest(p.Manifest); err != nil {
		return result, err
	}

	if err := p.Launcher.Start(ctx); err != nil {
		return result, err
	}

	stopped := false
	stop := func() {
		if stopped || p.KeepServing {
			return
		}
		stopped = true
		// Use a fresh context: the run context may already be cancelled
		// and teardown still has to happen.
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*p.Launcher.StopGrace)
		defer cancel()
		_ = p.Launcher.Stop(stopCtx)
	}
	defer stop()

	attempts, err := p.Poller.WaitReady(ctx)
	result.ProbeAttempts = attempts
	if err != nil {
		return result, err
	}

	taskResults, err := p.Runner.Run(ctx, p.Tasks)
	result.Tasks = taskResults
	if err != nil {
		return result, err
	}

	// All tasks done; the run now rides on the server process.
	exit, err := p.Launcher.Wait(ctx)
	if err != nil {
		return result, err
	}
	result.ServerExit = exit
	stopped = true
	return result, nil
}
