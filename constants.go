package pipeline

import (
	"io/fs"
	"time"
)

// Workspace directory and file constants
const (
	// InputDirName is the workspace subdirectory holding source images
	InputDirName = "input"

	// OutputsDirName is the workspace subdirectory receiving enhanced images
	OutputsDirName = "outputs"

	// LogsDirName is the workspace subdirectory for run logs
	LogsDirName = "logs"

	// WebUILogName is the log file capturing WebUI stdout/stderr
	WebUILogName = "webui.log"

	// PIDFileName is the file recording the background WebUI process ID
	PIDFileName = "webui.pid"

	// ManifestName is the per-run manifest written at pipeline start
	ManifestName = "run.json"
)

// Readiness poll defaults. The WebUI cold start is dominated by model loading,
// so the poll trades a bounded total wait (60 * 5s = 300s) for reliability
// under variable startup latency.
const (
	// DefaultProbeURL is the local WebUI endpoint polled for readiness
	DefaultProbeURL = "http://127.0.0.1:7860/"

	// DefaultWebUIPort is the port the WebUI listens on
	DefaultWebUIPort = 7860

	// DefaultProbeInterval is the sleep between readiness probes
	DefaultProbeInterval = 5 * time.Second

	// DefaultProbeAttempts is the maximum number of readiness probes
	DefaultProbeAttempts = 60

	// DefaultProbeTimeout is the per-probe HTTP timeout
	DefaultProbeTimeout = 3 * time.Second
)

// Process control defaults
const (
	// DefaultStopGrace is how long Stop waits after SIGTERM before SIGKILL
	DefaultStopGrace = 10 * time.Second

	// DefaultTaskTimeout is the per-task timeout when none is configured
	DefaultTaskTimeout = 10 * time.Minute
)

// Binary names with defaults that can be overridden
const (
	// DefaultRuntimePath is the language runtime used by the pipeline scripts
	DefaultRuntimePath = "python3"

	// DefaultInstallerPath is the package installer for pipeline dependencies
	DefaultInstallerPath = "pip3"

	// DefaultPackageManagerPath is the system package manager used to
	// provision missing runtime binaries
	DefaultPackageManagerPath = "apt-get"

	// DefaultRsyncPath and DefaultScpPath are the transfer tools used when
	// downloading results from a remote pod
	DefaultRsyncPath = "rsync"
	DefaultScpPath   = "scp"
)

// Fixed pod layout. These mirror the paths baked into the pipeline scripts
// themselves, so they are constants rather than configuration.
const (
	// DefaultWorkspaceRoot is the data root on the pod
	DefaultWorkspaceRoot = "/workspace/data"

	// DefaultPipelineDir is the checkout containing the processing scripts
	DefaultPipelineDir = "/workspace/hyperrealistic"

	// DefaultWebUIDir is the Stable Diffusion WebUI checkout
	DefaultWebUIDir = "/workspace/stable-diffusion-webui"

	// DefaultWebUIEntry is the WebUI entry point launched in the background
	DefaultWebUIEntry = "launch.py"

	// DefaultRequirements is the dependency manifest installed before launch
	DefaultRequirements = "/workspace/hyperrealistic/requirements.txt"
)

// Enhancement model identifiers known to the processing scripts
const (
	// ModelRealisticVision is the photorealistic checkpoint
	ModelRealisticVision = "realistic_vision"

	// ModelCinematicBeauty is the stylized cinematic checkpoint
	ModelCinematicBeauty = "cinematic_beauty"
)

// File modes
const (
	// DirMode is the default mode for created directories
	DirMode = 0o755

	// FileMode is the default mode for created files
	FileMode fs.FileMode = 0o644
)

// Operation identifies the pipeline phase an error originated from
type Operation int

const (
	// OpUnknown represents an unknown operation
	OpUnknown Operation = iota
	// OpBootstrap provisions the runtime and installer binaries
	OpBootstrap
	// OpInstall installs the dependency manifest
	OpInstall
	// OpWorkspace creates and populates the workspace directories
	OpWorkspace
	// OpLaunch starts the background WebUI process
	OpLaunch
	// OpProbe polls the WebUI readiness endpoint
	OpProbe
	// OpTask runs a processing task
	OpTask
	// OpWait supervises the background WebUI process
	OpWait
	// OpStop terminates the background WebUI process
	OpStop
	// OpWatch observes the outputs directory
	OpWatch
	// OpExec runs a command through an executor
	OpExec
	// OpPod talks to the pod management API
	OpPod
	// OpSync transfers results between pod and local machine
	OpSync
)

// Operation string constants
const (
	opUnknownStr   = "unknown"
	opBootstrapStr = "bootstrap"
	opInstallStr   = "install"
	opWorkspaceStr = "workspace"
	opLaunchStr    = "launch"
	opProbeStr     = "probe"
	opTaskStr      = "task"
	opWaitStr      = "wait"
	opStopStr      = "stop"
	opWatchStr     = "watch"
	opExecStr      = "exec"
	opPodStr       = "pod"
	opSyncStr      = "sync"
)

// String returns the string representation of an Operation
func (op Operation) String() string {
	switch op {
	case OpBootstrap:
		return opBootstrapStr
	case OpInstall:
		return opInstallStr
	case OpWorkspace:
		return opWorkspaceStr
	case OpLaunch:
		return opLaunchStr
	case OpProbe:
		return opProbeStr
	case OpTask:
		return opTaskStr
	case OpWait:
		return opWaitStr
	case OpStop:
		return opStopStr
	case OpWatch:
		return opWatchStr
	case OpExec:
		return opExecStr
	case OpPod:
		return opPodStr
	case OpSync:
		return opSyncStr
	default:
		return opUnknownStr
	}
}
