package pipeline

import (
	"context"
	"fmt"
)

// Bootstrap provisions the runtime environment the pipeline scripts need:
// it verifies the language runtime and package installer exist (installing
// them through the system package manager when absent) and installs the
// dependency manifest. Validation of the manifest contents is delegated
// entirely to the installer.
type Bootstrap struct {
	// Exec runs the provisioning commands
	Exec Executor
	// RuntimePath is the language runtime binary
	RuntimePath string
	// InstallerPath is the package installer binary
	InstallerPath string
	// PackageManagerPath is the system package manager binary
	PackageManagerPath string
	// Requirements is the dependency manifest path
	Requirements string
}

// BootstrapOption configures a Bootstrap
type BootstrapOption func(*Bootstrap)

// WithRuntime overrides the runtime binary name
func WithRuntime(path string) BootstrapOption {
	return func(b *Bootstrap) {
		b.RuntimePath = path
	}
}

// WithInstaller overrides the installer binary name
func WithInstaller(path string) BootstrapOption {
	return func(b *Bootstrap) {
		b.InstallerPath = path
	}
}

// WithPackageManager overrides the system package manager binary name
func WithPackageManager(path string) BootstrapOption {
	return func(b *Bootstrap) {
		b.PackageManagerPath = path
	}
}

// WithRequirements overrides the dependency manifest path
func WithRequirements(path string) BootstrapOption {
	return func(b *Bootstrap) {
		b.Requirements = path
	}
}

// NewBootstrap creates a Bootstrap with default tool names.
func NewBootstrap(exec Executor, opts ...BootstrapOption) *Bootstrap {
	b := &Bootstrap{
		Exec:               exec,
		RuntimePath:        DefaultRuntimePath,
		InstallerPath:      DefaultInstallerPath,
		PackageManagerPath: DefaultPackageManagerPath,
		Requirements:       DefaultRequirements,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// systemPackages maps tool binaries to the system packages providing them.
var systemPackages = map[string]string{
	DefaultRuntimePath:   "python3",
	DefaultInstallerPath: "python3-pip",
}

// EnsureTools verifies the runtime and installer binaries resolve on the
// search path, installing the providing system packages for any that do not.
func (b *Bootstrap) EnsureTools(ctx context.Context) error {
	var missing []string
	for _, tool := range []string{b.RuntimePath, b.InstallerPath} {
		if _, err := b.Exec.LookPath(ctx, tool); err != nil {
			pkg, ok := systemPackages[tool]
			if !ok {
				pkg = tool
			}
			missing = append(missing, pkg)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	args := append([]string{"install", "-y"}, missing...)
	res, err := b.Exec.Run(ctx, Cmd{Program: b.PackageManagerPath, Args: args})
	if err != nil {
		return &OpError{Op: OpBootstrap, Path: b.PackageManagerPath, Err: err}
	}
	if !res.Ok() {
		return &OpError{
			Op:   OpBootstrap,
			Path: b.PackageManagerPath,
			Err:  fmt.Errorf("%w: %s", ErrToolMissing, &ExitCodeError{Code: res.ExitCode}),
		}
	}
	return nil
}

// InstallDeps installs the dependency manifest through the package
// installer. A non-zero exit from the installer fails the whole run.
func (b *Bootstrap) InstallDeps(ctx context.Context) error {
	res, err := b.Exec.Run(ctx, Cmd{
		Program: b.InstallerPath,
		Args:    []string{"install", "-r", b.Requirements},
	})
	if err != nil {
		return &OpError{Op: OpInstall, Path: b.Requirements, Err: err}
	}
	if !res.Ok() {
		return &OpError{Op: OpInstall, Path: b.Requirements, Err: &ExitCodeError{Code: res.ExitCode}}
	}
	return nil
}

// Run provisions tools then installs dependencies.
func (b *Bootstrap) Run(ctx context.Context) error {
	if err := b.EnsureTools(ctx); err != nil {
		return err
	}
	return b.InstallDeps(ctx)
}
