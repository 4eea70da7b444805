package pipeline

import (
	"path/filepath"
	"strconv"
	"time"
)

// Task is one named step of the processing sequence. The pipeline used to
// be a hard-coded list of script invocations; modeling tasks as data lets
// callers extend the sequence, retry flaky steps, or tolerate individual
// failures without touching control flow.
type Task struct {
	// Name identifies the task in results and error messages
	Name string

	// Program is the binary to invoke
	Program string

	// Args are the program arguments
	Args []string

	// Dir is the working directory
	Dir string

	// Retries is the number of additional attempts after a failure
	Retries int

	// ContinueOnError lets the sequence proceed past this task's failure
	ContinueOnError bool

	// Timeout bounds a single attempt; zero applies DefaultTaskTimeout
	Timeout time.Duration
}

// TaskConfig describes the fixed processing sequence.
type TaskConfig struct {
	// PipelineDir is the checkout containing the processing scripts
	PipelineDir string

	// OutputsDir is where enhanced images land and comparisons read from
	OutputsDir string

	// Models are the enhancement models, in execution order
	Models []string

	// PerImage is the number of variations per source image
	PerImage int

	// ContinueOnModelError keeps later models running when one fails,
	// matching how an operator usually wants a comparison run to behave
	ContinueOnModelError bool
}

// DefaultModels returns the standard comparison pair in its fixed order.
func DefaultModels() []string {
	return []string{ModelRealisticVision, ModelCinematicBeauty}
}

// DefaultTasks builds the standard sequence: one enhancement run per model,
// strictly in order, followed by the results comparison. Order is
// deterministic; with default policy the first failing task prevents every
// later task from running.
func DefaultTasks(cfg TaskConfig) []Task {
	if cfg.PipelineDir == "" {
		cfg.PipelineDir = DefaultPipelineDir
	}
	if cfg.OutputsDir == "" {
		cfg.OutputsDir = filepath.Join(DefaultWorkspaceRoot, OutputsDirName)
	}
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModels()
	}
	if cfg.PerImage <= 0 {
		cfg.PerImage = 1
	}

	tasks := make([]Task, 0, len(cfg.Models)+1)
	for _, model := range cfg.Models {
		tasks = append(tasks, Task{
			Name:    "enhance-" + model,
			Program: DefaultRuntimePath,
			Args: []string{
				filepath.Join("pipelines", "process_faces.py"),
				"--model", model,
				"--per-image", strconv.Itoa(cfg.PerImage),
			},
			Dir:             cfg.PipelineDir,
			ContinueOnError: cfg.ContinueOnModelError,
		})
	}
	tasks = append(tasks, Task{
		Name:    "compare-results",
		Program: DefaultRuntimePath,
		Args: []string{
			filepath.Join("pipelines", "compare_results.py"),
			"--output-dir", cfg.OutputsDir,
		},
		Dir: cfg.PipelineDir,
	})
	return tasks
}
