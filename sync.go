package pipeline

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// ResultSync downloads run artifacts from a remote pod to the local
// machine. It prefers rsync for delta transfers of large image sets and
// falls back to scp when rsync is unavailable on either end.
type ResultSync struct {
	// Exec runs the transfer tools on the local machine
	Exec Executor
	// Host is the pod SSH host
	Host string
	// Port is the pod SSH port
	Port int
	// User is the SSH login user
	User string
	// KeyPath is the SSH private key path
	KeyPath string
}

// NewResultSync creates a ResultSync for the given pod endpoint.
func NewResultSync(exec Executor, host string, port int, user, keyPath string) *ResultSync {
	return &ResultSync{Exec: exec, Host: host, Port: port, User: user, KeyPath: keyPath}
}

func (s *ResultSync) remote(path string) string {
	return fmt.Sprintf("%s@%s:%s", s.User, s.Host, path)
}

// Download copies remotePath from the pod into localDir, creating the
// destination as needed.
func (s *ResultSync) Download(ctx context.Context, remotePath, localDir string) error {
	if err := os.MkdirAll(localDir, DirMode); err != nil {
		return &OpError{Op: OpSync, Path: localDir, Err: err}
	}

	if _, err := s.Exec.LookPath(ctx, DefaultRsyncPath); err == nil {
		res, err := s.Exec.Run(ctx, Cmd{
			Program: DefaultRsyncPath,
			Args: []string{
				"-avz",
				"-e", fmt.Sprintf("ssh -p %d -i %s -o StrictHostKeyChecking=no", s.Port, s.KeyPath),
				s.remote(remotePath),
				localDir,
			},
		})
		if err != nil {
			return err
		}
		if res.Ok() {
			return nil
		}
		// rsync exists locally but failed (often missing on the pod);
		// fall through to scp.
	}

	res, err := s.Exec.Run(ctx, Cmd{
		Program: DefaultScpPath,
		Args: []string{
			"-r",
			"-P", strconv.Itoa(s.Port),
			"-i", s.KeyPath,
			"-o", "StrictHostKeyChecking=no",
			s.remote(remotePath),
			localDir,
		},
	})
	if err != nil {
		return err
	}
	if !res.Ok() {
		return &OpError{Op: OpSync, Path: remotePath, Err: &ExitCodeError{Code: res.ExitCode}}
	}
	return nil
}

// Upload copies localPath to remoteDir on the pod via scp.
func (s *ResultSync) Upload(ctx context.Context, localPath, remoteDir string) error {
	res, err := s.Exec.Run(ctx, Cmd{
		Program: DefaultScpPath,
		Args: []string{
			"-r",
			"-P", strconv.Itoa(s.Port),
			"-i", s.KeyPath,
			"-o", "StrictHostKeyChecking=no",
			localPath,
			s.remote(remoteDir),
		},
	})
	if err != nil {
		return err
	}
	if !res.Ok() {
		return &OpError{Op: OpSync, Path: localPath, Err: &ExitCodeError{Code: res.ExitCode}}
	}
	return nil
}
