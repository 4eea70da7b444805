package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pipeline "github.com/hyperrealistic/go-pipeline"
)

// config is the resolved CLI configuration: flags override environment,
// environment overrides the config file.
type config struct {
	WorkspaceRoot string
	APIKey        string
	PodID         string
	SSHHost       string
	SSHPort       int
	SSHUser       string
	SSHKey        string
	Verbose       bool
}

// loadConfig resolves configuration from flags, PIPECTL_* environment
// variables, and an optional config file. RUNPOD_API_KEY is honored as an
// alias for the API key so the CLI works with an unmodified pod shell.
func loadConfig(cmd *cobra.Command) (config, error) {
	v := viper.New()
	v.SetEnvPrefix("PIPECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api-key", "PIPECTL_API_KEY", "RUNPOD_API_KEY")

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return config{}, err
	}
	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return config{}, err
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config{}, err
		}
	} else {
		v.SetConfigName("pipectl")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pipectl"))
		}
		v.AddConfigPath(".")
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return config{}, err
		}
	}

	return config{
		WorkspaceRoot: v.GetString("workspace"),
		APIKey:        v.GetString("api-key"),
		PodID:         v.GetString("pod"),
		SSHHost:       v.GetString("ssh-host"),
		SSHPort:       v.GetInt("ssh-port"),
		SSHUser:       v.GetString("ssh-user"),
		SSHKey:        v.GetString("ssh-key"),
		Verbose:       v.GetBool("verbose"),
	}, nil
}

// newLogger builds the CLI logger, teeing to the workspace log file when
// the logs directory is writable.
func newLogger(ws *pipeline.Workspace, verbose bool) *log.Logger {
	w := io.Writer(os.Stderr)
	if ws != nil && ws.EnsureDirs() == nil {
		path := filepath.Join(ws.LogsDir(), "pipectl.log")
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			w = io.MultiWriter(os.Stderr, f)
		}
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "pipectl",
		ReportTimestamp: true,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// podIDs returns the pods a command should act on: explicit arguments win,
// otherwise the configured default pod.
func podIDs(cfg config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	if cfg.PodID != "" {
		return []string{cfg.PodID}
	}
	return nil
}
