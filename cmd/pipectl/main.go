// pipectl drives a Stable Diffusion face-enhancement run end to end:
// provision the runtime, launch the WebUI in the background, wait for it
// to answer, run the processing sequence, and supervise the server. Pod
// commands start, stop, and inspect the RunPod instances runs execute on.
//
// Usage:
//
//	pipectl [--workspace DIR] [--verbose] <command> [flags]
//
// Commands:
//
//	run     Run the full pipeline on this machine
//	up      Start pods and wait for their runtime
//	down    Stop pods
//	status  Show pod state and exposed ports
//	exec    Run a command on the pod over SSH
//	sync    Download run outputs from the pod
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pipeline "github.com/hyperrealistic/go-pipeline"
)

// version is set through ldflags at build time.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "pipectl",
		Short:         "Stable Diffusion enhancement pipeline control",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file path")
	rootCmd.PersistentFlags().String("workspace", "", "workspace root (default: pod layout)")
	rootCmd.PersistentFlags().String("api-key", "", "pod management API key")
	rootCmd.PersistentFlags().String("pod", "", "default pod ID")
	rootCmd.PersistentFlags().String("ssh-host", "", "pod SSH host")
	rootCmd.PersistentFlags().Int("ssh-port", 22, "pod SSH port")
	rootCmd.PersistentFlags().String("ssh-user", "root", "pod SSH user")
	rootCmd.PersistentFlags().String("ssh-key", "", "pod SSH private key path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newRunCmd(),
		newUpCmd(),
		newDownCmd(),
		newStatusCmd(),
		newExecCmd(),
		newSyncCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var exitErr *pipeline.ExitCodeError
		if errors.As(err, &exitErr) && exitErr.Code > 0 {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
