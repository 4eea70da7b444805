// Package pipeline provisions, launches, and supervises the hyperrealistic
// face-enhancement pipeline: a Stable Diffusion WebUI running as a background
// process plus a fixed sequence of processing scripts driven against it.
//
// The core functionality centers around the Pipeline type, which wires the
// phases of a full run together:
//
//	ws := pipeline.NewWorkspace("/workspace/data")
//	p := pipeline.New(ws, pipeline.TaskConfig{PerImage: 1})
//
//	result, err := p.Run(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("run %s: webui exited %d\n", result.RunID, result.ServerExit)
//
// A run bootstraps the runtime environment, creates the workspace
// directories, starts the WebUI detached in the background, polls its HTTP
// endpoint until it answers (bounded at 60 attempts, 5 seconds apart), runs
// the enhancement and comparison tasks strictly in order, and finally blocks
// on the server process. Unless KeepServing is set, the server is terminated
// on every exit path, so a failed run never leaves an unmanaged process.
//
// Each phase is also usable on its own: Bootstrap, Workspace, Launcher,
// Poller, and Runner are independent types, and task execution goes through
// the Executor interface so the same sequence can drive a local checkout or
// a remote pod over SSH.
//
// # Manager for Bulk Operations
//
// The Manager type is provided as a convenience for accounts running several
// pods. It performs pod API operations concurrently with bounded parallelism:
//
//	manager := pipeline.NewManager(client,
//	    pipeline.WithConcurrency(5),
//	    pipeline.WithTimeout(30 * time.Second),
//	)
//
//	err = manager.Stop(ctx, "pod-a", "pod-b", "pod-c")
//
// If your application manages a single pod, you do not need the Manager;
// PodClient provides all core functionality.
//
// # Design Philosophy
//
// This library prioritizes:
//
//   - Explicit per-phase error results (no blanket abort-on-error mode)
//   - Guaranteed teardown of the background server on failure paths
//   - Context-aware operations with proper timeouts
//   - Tasks as data: the processing sequence is an ordered list of named
//     tasks, each independently retryable or skippable
package pipeline
