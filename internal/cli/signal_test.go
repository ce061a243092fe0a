//go:build unix

package cli

import "syscall"

func signalSelf() error {
	return syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
}
