package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pipeline "github.com/hyperrealistic/go-pipeline"
)

func newExecCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "exec -- <program> [args...]",
		Short: "Run a command on the pod over SSH",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.SSHHost == "" {
				return fmt.Errorf("no SSH host configured (use --ssh-host)")
			}

			exec := pipeline.NewSSHExecutor(cfg.SSHHost, cfg.SSHPort,
				pipeline.WithSSHUser(cfg.SSHUser),
				pipeline.WithSSHKey(cfg.SSHKey),
			)
			res, err := exec.Run(cmd.Context(), pipeline.Cmd{
				Program: args[0],
				Args:    args[1:],
				Dir:     dir,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, res.Stdout)
			fmt.Fprint(os.Stderr, res.Stderr)
			if !res.Ok() {
				return &pipeline.ExitCodeError{Code: res.ExitCode}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "remote working directory")
	return cmd
}
