package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	pipeline "github.com/hyperrealistic/go-pipeline"
)

func newSyncCmd() *cobra.Command {
	var remotePath, localDir string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download run outputs from the pod",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.SSHHost == "" {
				return fmt.Errorf("no SSH host configured (use --ssh-host)")
			}
			logger := newLogger(nil, cfg.Verbose)

			if remotePath == "" {
				remotePath = pipeline.NewWorkspace("").OutputsDir()
			}
			if localDir == "" {
				localDir = filepath.Join(".", "outputs")
			}

			s := pipeline.NewResultSync(pipeline.NewLocalExecutor(),
				cfg.SSHHost, cfg.SSHPort, cfg.SSHUser, cfg.SSHKey)

			logger.Info("downloading outputs", "remote", remotePath, "local", localDir)
			if err := s.Download(cmd.Context(), remotePath, localDir); err != nil {
				return err
			}
			logger.Info("download complete", "local", localDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&remotePath, "remote", "", "remote path to download (default: pod outputs dir)")
	cmd.Flags().StringVar(&localDir, "local", "", "local destination directory (default: ./outputs)")
	return cmd
}
