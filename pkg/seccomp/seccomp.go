// Package seccomp builds syscall filters that can be applied to
// spawned commands before execve.
package seccomp

import (
	"syscall"
)

// Filter is a compiled seccomp BPF program in the form the seccomp
// syscall consumes.
type Filter []syscall.SockFilter

// SockFprog converts Filter to SockFprog for the seccomp syscall.
func (f Filter) SockFprog() *syscall.SockFprog {
	b := []syscall.SockFilter(f)
	return &syscall.SockFprog{
		Len:    uint16(len(b)),
		Filter: &b[0],
	}
}
