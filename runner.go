package pipeline

import (
	"context"
	"time"
)

// TaskResult records the outcome of one task in a sequence.
type TaskResult struct {
	// Task is the task name
	Task string
	// Attempts is how many times the task was tried
	Attempts int
	// ExitCode is the final attempt's exit status
	ExitCode int
	// Duration is the total time spent across attempts
	Duration time.Duration
	// Err is non-nil when the task ultimately failed
	Err error
}

// Runner executes tasks strictly sequentially through an Executor. The
// default policy is fail-fast: the first task that exhausts its attempts
// aborts the sequence and later tasks never run. Tasks marked
// ContinueOnError record their failure and let the sequence proceed.
type Runner struct {
	// Exec runs the task commands
	Exec Executor
}

// NewRunner creates a Runner backed by the given executor.
func NewRunner(exec Executor) *Runner {
	return &Runner{Exec: exec}
}

// Run executes the tasks in order. It returns the results for every task
// that was attempted, plus the first fatal error if the sequence aborted.
// Results for tasks that never ran are not fabricated.
func (r *Runner) Run(ctx context.Context, tasks []Task) ([]TaskResult, error) {
	results := make([]TaskResult, 0, len(tasks))
	for _, t := range tasks {
		res := r.runOne(ctx, t)
		results = append(results, res)
		if res.Err != nil && !t.ContinueOnError {
			return results, res.Err
		}
	}
	return results, nil
}

// runOne runs a single task, retrying per its policy.
func (r *Runner) runOne(ctx context.Context, t Task) (result TaskResult) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}

	result = TaskResult{Task: t.Name}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
	}()

	for attempt := 0; attempt <= t.Retries; attempt++ {
		result.Attempts = attempt + 1

		if err := ctx.Err(); err != nil {
			result.Err = &OpError{Op: OpTask, Path: t.Name, Err: err}
			return result
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		res, err := r.Exec.Run(attemptCtx, Cmd{
			Program: t.Program,
			Args:    t.Args,
			Dir:     t.Dir,
		})
		cancel()

		result.ExitCode = res.ExitCode
		switch {
		case err != nil:
			result.Err = &OpError{Op: OpTask, Path: t.Name, Err: err}
		case !res.Ok():
			result.Err = &OpError{Op: OpTask, Path: t.Name, Err: &ExitCodeError{Code: res.ExitCode}}
		default:
			result.Err = nil
			return result
		}
	}
	return result
}
