package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHExecutor runs commands on a remote pod over SSH. Each Run dials a
// fresh connection, mirroring how the pod is typically reached through
// ephemeral port mappings that may change between runs.
type SSHExecutor struct {
	// Host is the SSH host or IP
	Host string
	// Port is the SSH port
	Port int
	// User is the SSH login user
	User string
	// KeyPath is the path to the private key file
	KeyPath string
	// DialTimeout bounds connection establishment
	DialTimeout time.Duration
	// Env contains additional KEY=VALUE pairs exported before every command
	Env []string
}

// SSHOption configures an SSHExecutor
type SSHOption func(*SSHExecutor)

// WithSSHUser sets the login user
func WithSSHUser(user string) SSHOption {
	return func(e *SSHExecutor) {
		e.User = user
	}
}

// WithSSHKey sets the private key path
func WithSSHKey(path string) SSHOption {
	return func(e *SSHExecutor) {
		e.KeyPath = path
	}
}

// WithSSHDialTimeout sets the connection timeout
func WithSSHDialTimeout(d time.Duration) SSHOption {
	return func(e *SSHExecutor) {
		e.DialTimeout = d
	}
}

// WithSSHEnv sets additional environment exported before every command
func WithSSHEnv(env []string) SSHOption {
	return func(e *SSHExecutor) {
		e.Env = env
	}
}

// NewSSHExecutor creates an SSHExecutor for the given endpoint.
func NewSSHExecutor(host string, port int, opts ...SSHOption) *SSHExecutor {
	e := &SSHExecutor{
		Host:        host,
		Port:        port,
		User:        "root",
		DialTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *SSHExecutor) dial() (*ssh.Client, error) {
	key, err := os.ReadFile(e.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parsing key: %w", err)
	}

	cfg := &ssh.ClientConfig{
		User:    e.User,
		Auth:    []ssh.AuthMethod{ssh.PublicKeys(signer)},
		Timeout: e.DialTimeout,
		// Pod hosts are ephemeral; their host keys change on every restart.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
	}

	addr := net.JoinHostPort(e.Host, fmt.Sprintf("%d", e.Port))
	return ssh.Dial("tcp", addr, cfg)
}

// TestConnection dials and immediately closes a connection, reporting
// whether the pod is reachable over SSH.
func (e *SSHExecutor) TestConnection(ctx context.Context) error {
	type dialResult struct {
		client *ssh.Client
		err    error
	}
	ch := make(chan dialResult, 1)
	go func() {
		c, err := e.dial()
		ch <- dialResult{c, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return &OpError{Op: OpExec, Path: e.Host, Err: res.err}
		}
		_ = res.client.Close()
		return nil
	case <-ctx.Done():
		return &OpError{Op: OpExec, Path: e.Host, Err: ctx.Err()}
	}
}

// Run executes the command on the remote host and captures its output.
func (e *SSHExecutor) Run(ctx context.Context, c Cmd) (ExecResult, error) {
	client, err := e.dial()
	if err != nil {
		return ExecResult{}, &OpError{Op: OpExec, Path: e.Host, Err: err}
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return ExecResult{}, &OpError{Op: OpExec, Path: e.Host, Err: err}
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(e.commandLine(c))
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return ExecResult{Stdout: stdout.String(), Stderr: stderr.String()},
			&OpError{Op: OpExec, Path: c.Program, Err: ctx.Err()}
	}

	res := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitStatus()
		return res, nil
	}
	return res, &OpError{Op: OpExec, Path: c.Program, Err: err}
}

// LookPath resolves a binary on the remote PATH via command -v.
func (e *SSHExecutor) LookPath(ctx context.Context, name string) (string, error) {
	res, err := e.Run(ctx, Cmd{Program: "command", Args: []string{"-v", name}})
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", &OpError{Op: OpExec, Path: name, Err: ErrToolMissing}
	}
	return strings.TrimSpace(res.Stdout), nil
}

// commandLine renders a Cmd as a single shell command line, quoting each
// argument and applying Dir and Env.
func (e *SSHExecutor) commandLine(c Cmd) string {
	var sb strings.Builder
	for _, kv := range append(e.Env, c.Env...) {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		sb.WriteString("export ")
		sb.WriteString(name)
		sb.WriteString("=")
		sb.WriteString(shellQuote(value))
		sb.WriteString("; ")
	}
	if c.Dir != "" {
		sb.WriteString("cd ")
		sb.WriteString(shellQuote(c.Dir))
		sb.WriteString(" && ")
	}
	sb.WriteString(shellQuote(c.Program))
	for _, arg := range c.Args {
		sb.WriteString(" ")
		sb.WriteString(shellQuote(arg))
	}
	return sb.String()
}

// shellQuote wraps s in single quotes, escaping embedded single quotes.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'\\$`&|;<>(){}*?#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
