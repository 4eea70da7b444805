package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	pipeline "github.com/hyperrealistic/go-pipeline"
)

// podStartupTimeout bounds how long `up` waits for a pod runtime.
const podStartupTimeout = 5 * time.Minute

func newUpCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "up [pod-id...]",
		Short: "Start pods",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ids := podIDs(cfg, args)
			if len(ids) == 0 {
				return fmt.Errorf("no pod ID given (use --pod or arguments)")
			}
			logger := newLogger(nil, cfg.Verbose)
			client := pipeline.NewPodClient(cfg.APIKey)

			logger.Info("starting pods", "pods", ids)
			if err := pipeline.NewManager(client).Start(cmd.Context(), ids...); err != nil {
				return err
			}
			if !wait {
				return nil
			}

			for _, id := range ids {
				ctx, cancel := context.WithTimeout(cmd.Context(), podStartupTimeout)
				err := client.WaitReady(ctx, id, nil)
				cancel()
				if err != nil {
					return err
				}
				logger.Info("pod ready", "pod", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", true, "wait for the pod runtime to come up")
	return cmd
}

func newDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down [pod-id...]",
		Short: "Stop pods (volumes persist, only compute stops)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ids := podIDs(cfg, args)
			if len(ids) == 0 {
				return fmt.Errorf("no pod ID given (use --pod or arguments)")
			}
			logger := newLogger(nil, cfg.Verbose)

			logger.Info("stopping pods", "pods", ids)
			client := pipeline.NewPodClient(cfg.APIKey)
			return pipeline.NewManager(client).Stop(cmd.Context(), ids...)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [pod-id...]",
		Short: "Show pod state and exposed ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ids := podIDs(cfg, args)
			if len(ids) == 0 {
				return fmt.Errorf("no pod ID given (use --pod or arguments)")
			}

			client := pipeline.NewPodClient(cfg.APIKey)
			infos, err := pipeline.NewManager(client).Info(cmd.Context(), ids...)
			if err != nil {
				return err
			}
			for _, id := range ids {
				info, ok := infos[id]
				if !ok {
					continue
				}
				state := "stopped"
				if info.Running {
					state = "running"
				}
				fmt.Printf("%s\t%s\t%s\n", info.ID, info.Name, state)
				for _, p := range info.Ports {
					fmt.Printf("\t%d -> %d/%s\n", p.PrivatePort, p.PublicPort, p.Type)
				}
			}
			return nil
		},
	}
}
