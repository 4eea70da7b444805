//go:build linux || darwin

// Package proc provides platform-specific process-group helpers.
package proc

import "syscall"

// Signals used when tearing down a process group.
const (
	SigTerm = syscall.SIGTERM
	SigKill = syscall.SIGKILL
)

// GroupAttr returns attributes that place the child in its own process group.
func GroupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// SignalGroup delivers sig to the whole process group led by pid.
func SignalGroup(pid int, sig syscall.Signal) error {
	return syscall.Kill(-pid, sig)
}

// Alive reports whether a process with the given pid still exists.
func Alive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
