package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	pipeline "github.com/hyperrealistic/go-pipeline"
)

func newRunCmd() *cobra.Command {
	var (
		models          []string
		perImage        int
		pipelineDir     string
		keepServing     bool
		continueOnError bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full enhancement pipeline on this machine",
		Long: `Run provisions the Python runtime, launches the Stable Diffusion WebUI
in the background, waits for it to answer on its local port, runs one
enhancement pass per model followed by the results comparison, and then
supervises the server until it exits. On any failure the background
server is stopped unless --keep-serving is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ws := pipeline.NewWorkspace(cfg.WorkspaceRoot)
			logger := newLogger(ws, cfg.Verbose)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := pipeline.New(ws, pipeline.TaskConfig{
				PipelineDir:          pipelineDir,
				OutputsDir:           ws.OutputsDir(),
				Models:               models,
				PerImage:             perImage,
				ContinueOnModelError: continueOnError,
			})
			p.KeepServing = keepServing

			logger.Info("starting run",
				"run_id", p.Manifest.RunID,
				"models", p.Manifest.Models,
				"per_image", p.Manifest.PerImage,
			)

			result, err := p.Run(ctx)
			for _, tr := range result.Tasks {
				if tr.Err != nil {
					logger.Error("task failed",
						"task", tr.Task, "attempts", tr.Attempts,
						"exit", tr.ExitCode, "err", tr.Err)
					continue
				}
				logger.Info("task done",
					"task", tr.Task, "duration", tr.Duration)
			}
			if err != nil {
				logger.Error("run failed", "run_id", result.RunID, "err", err)
				return err
			}

			logger.Info("run complete",
				"run_id", result.RunID,
				"probe_attempts", result.ProbeAttempts,
				"server_exit", result.ServerExit,
			)
			return serverExitError(result)
		},
	}

	cmd.Flags().StringSliceVar(&models, "model", nil, "enhancement models, in order (default: the standard pair)")
	cmd.Flags().IntVar(&perImage, "per-image", 1, "variations per source image")
	cmd.Flags().StringVar(&pipelineDir, "pipeline-dir", "", "processing scripts checkout (default: pod layout)")
	cmd.Flags().BoolVar(&keepServing, "keep-serving", false, "leave the WebUI running after a failed phase")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "run remaining models when one fails")
	return cmd
}

// serverExitError maps the supervised server's exit status onto the
// command's own exit status, mirroring a shell script ending in wait.
func serverExitError(result pipeline.Result) error {
	if result.ServerExit != 0 {
		return &pipeline.ExitCodeError{Code: result.ServerExit}
	}
	return nil
}
