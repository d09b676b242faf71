package forkexec

import (
	"syscall"

	"github.com/criyle/go-runcmd/pkg/rlimit"
)

// Runner is the configuration for one child process: the exec path,
// argv, descriptor layout and the restrictions applied before execve.
type Runner struct {
	// argv and env for execve syscall for the child process.
	// Args[0] is the executable path used directly; no PATH search is
	// performed here beyond what execve itself does (none)
	Args []string
	Env  []string

	// file descriptors for the new process, mapped from 0 to len-1;
	// -1 closes that descriptor in the child
	Files []uintptr

	// descriptors owned by other live children, closed in the child so
	// repeated invocations do not inflate the child's fd table
	CloseFds []int

	// POSIX resource limits applied through prlimit64 before execve
	RLimits []rlimit.RLimit

	// work path set by chdir(dir) before execve
	WorkDir string

	// seccomp syscall filter loaded right before execve
	Seccomp *syscall.SockFprog

	// no_new_privs calls prctl(PR_SET_NO_NEW_PRIVS) to disable setuid
	// escalation. It is automatically enabled when a seccomp filter is
	// provided
	NoNewPrivs bool
}
