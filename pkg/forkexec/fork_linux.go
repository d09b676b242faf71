package forkexec

import (
	"syscall"

	_ "unsafe" // required for go:linkname
)

//go:linkname beforeFork syscall.runtime_BeforeFork
func beforeFork()

//go:linkname afterFork syscall.runtime_AfterFork
func afterFork()

//go:linkname afterForkInChild syscall.runtime_AfterForkInChild
func afterForkInChild()

// Start clones the child, sets up its descriptors, limits and filter
// and calls execve. It returns the child pid from the parent's
// context. If execve itself fails the child exits with a neutral
// status 0 rather than continuing to run parent code; the parent sees
// that as a normal, if unhelpful, exit.
func (r *Runner) Start() (int, error) {
	if len(r.Args) == 0 {
		return 0, syscall.EINVAL
	}
	argv0, argv, env, err := prepareExec(r.Args, r.Env)
	if err != nil {
		return 0, err
	}
	workdir, err := syscallStringFromString(r.WorkDir)
	if err != nil {
		return 0, err
	}

	pid, err1 := forkAndExecInChild(r, argv0, argv, env, workdir)

	// restore all signals
	afterFork()
	syscall.ForkLock.Unlock()

	if err1 != 0 {
		return 0, err1
	}
	return int(pid), nil
}
