//go:build !linux && !darwin

// Package proc provides platform-specific process-group helpers.
package proc

import (
	"errors"
	"syscall"
)

// Signals used when tearing down a process group.
const (
	SigTerm = syscall.Signal(0xf)
	SigKill = syscall.Signal(0x9)
)

// GroupAttr is a no-op on platforms without process groups.
func GroupAttr() *syscall.SysProcAttr {
	return nil
}

// SignalGroup is not supported on this platform.
func SignalGroup(int, syscall.Signal) error {
	return errors.New("process groups not supported on this platform")
}

// Alive is not supported on this platform and pessimistically reports false.
func Alive(int) bool {
	return false
}
