package runcmd

import (
	"errors"
	"io"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/criyle/go-runcmd/pkg/cmdline"
	"github.com/criyle/go-runcmd/pkg/forkexec"
	"github.com/criyle/go-runcmd/pkg/output"
	"github.com/criyle/go-runcmd/pkg/pidtable"
	"github.com/criyle/go-runcmd/pkg/rlimit"
	"github.com/criyle/go-runcmd/pkg/state"
)

// ErrNoCommand is returned when the command line contains nothing to
// run.
var ErrNoCommand = errors.New("runcmd: empty command")

// execEnv is the fixed child environment: a neutral locale and
// nothing inherited from the caller.
var execEnv = []string{"LC_ALL=C"}

// procTable is the process-wide descriptor-to-pid registry shared by
// every invocation and the watchdog.
var procTable atomic.Pointer[pidtable.Table]

// execFilter, when set, is loaded into every spawned child right
// before execve.
var execFilter atomic.Pointer[syscall.SockFprog]

// Confine applies a seccomp filter to every command spawned after the
// call. The filter is loaded in the child together with
// PR_SET_NO_NEW_PRIVS right before execve, so the command and
// everything it forks run confined. A nil program removes the
// confinement for subsequent commands.
func Confine(prog *syscall.SockFprog) {
	execFilter.Store(prog)
}

// Init allocates the process-wide pid table sized to the descriptor
// limit. It is idempotent. Single-threaded callers may skip it; the
// first command allocates the table lazily. Multithreaded programs
// should call it once before spawning goroutines that run commands.
func Init() {
	if procTable.Load() != nil {
		return
	}
	procTable.CompareAndSwap(nil, pidtable.New(0))
}

// Table returns the process-wide pid table, allocating it if needed.
func Table() *pidtable.Table {
	Init()
	return procTable.Load()
}

// Run executes line without a shell, draining its standard output and
// then its standard error into the given containers (either may be
// nil to skip capture; a skipped stream is simply closed on the child).
// It blocks until the child exits and returns the exit code, or
// ExitUnknown if the child was signalled or could not be reaped.
//
// A command line that cannot be tokenized safely, or any failure to
// create the pipes or the process, terminates the calling process
// with the UNKNOWN state: a check that cannot even start its command
// has no meaningful result to report. Mid-stream read errors leave
// the partial capture in place, recorded in the container's Err
// field, and reaping still proceeds; RunCommand surfaces them as a
// return value as well.
func Run(line string, out, errOut *output.Output, mode output.Mode) int {
	if out != nil {
		out.Reset()
	}
	if errOut != nil {
		errOut.Reset()
	}

	t := Table()
	fdOut, fdErr, err := open(t, line)
	if err != nil {
		state.Die(state.Unknown, "Could not open pipe: %s\n", line)
	}

	if out != nil {
		out.Collect(fdReader(fdOut), mode)
	}
	if errOut != nil {
		errOut.Collect(fdReader(fdErr), mode)
	}

	res := reap(t, fdOut, fdErr)
	return res.Code()
}

// RunCommand executes line like Run but never terminates the caller:
// launch failures come back as an error and stream read errors are
// surfaced instead of swallowed.
func RunCommand(line string, mode output.Mode) (*Result, error) {
	return RunCommandN(line, 0, mode)
}

// RunCommandN is RunCommand with a per-stream capture cap. Bytes past
// the cap are drained and discarded so the child never blocks on a
// full pipe; max 0 means unlimited.
func RunCommandN(line string, max output.Size, mode output.Mode) (*Result, error) {
	t := Table()
	fdOut, fdErr, err := open(t, line)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	readErr := res.Stdout.CollectN(fdReader(fdOut), max, mode)
	if err := res.Stderr.CollectN(fdReader(fdErr), max, mode); readErr == nil {
		readErr = err
	}

	wait := reap(t, fdOut, fdErr)
	res.Status = wait.Status
	res.ExitStatus = wait.ExitStatus
	res.Error = wait.Error
	return res, readErr
}

// open tokenizes the command line, creates the stdout/stderr pipes,
// spawns the child and registers its stdout read descriptor in the
// pid table. It returns the two read descriptors.
func open(t *pidtable.Table, line string) (int, int, error) {
	args, err := cmdline.Split(line)
	if err != nil {
		return 0, 0, err
	}
	if len(args) == 0 {
		return 0, 0, ErrNoCommand
	}

	var pOut, pErr [2]int
	if err := unix.Pipe2(pOut[:], unix.O_CLOEXEC); err != nil {
		return 0, 0, err
	}
	if err := unix.Pipe2(pErr[:], unix.O_CLOEXEC); err != nil {
		unix.Close(pOut[0])
		unix.Close(pOut[1])
		return 0, 0, err
	}

	r := forkexec.Runner{
		Args:     args,
		Env:      execEnv,
		Files:    []uintptr{0, uintptr(pOut[1]), uintptr(pErr[1])},
		CloseFds: t.Fds(),
		RLimits:  (&rlimit.RLimits{DisableCore: true}).PrepareRLimit(),
		Seccomp:  execFilter.Load(),
	}
	pid, err := r.Start()

	// child write ends are not ours to keep either way
	unix.Close(pOut[1])
	unix.Close(pErr[1])
	if err != nil {
		unix.Close(pOut[0])
		unix.Close(pErr[0])
		return 0, 0, err
	}

	if err := t.Register(pOut[0], pid); err != nil {
		// no registry entry means no cleanup path; dispose of the
		// child here rather than leak it
		unix.Kill(pid, unix.SIGKILL)
		waitPid(pid)
		unix.Close(pOut[0])
		unix.Close(pErr[0])
		return 0, 0, err
	}
	return pOut[0], pErr[0], nil
}

// reap closes both read descriptors and waits for the child owning
// fdOut. The registry entry is validated and cleared before anything
// is closed or waited on: a pair that is not registered is not ours,
// and closing it could hit an unrelated descriptor reusing the same
// number. Clearing before the wait keeps a concurrent timeout kill
// from signalling a process already being reaped; a second reap of
// the same descriptor fails cleanly without touching either fd.
func reap(t *pidtable.Table, fdOut, fdErr int) Result {
	pid, ok := t.Take(fdOut)
	if !ok {
		return Result{Status: StatusRunnerError, ExitStatus: ExitUnknown,
			Error: "descriptor not registered"}
	}
	unix.Close(fdErr)
	if err := unix.Close(fdOut); err != nil {
		return Result{Status: StatusRunnerError, ExitStatus: ExitUnknown, Error: err.Error()}
	}

	ws, err := waitPid(pid)
	if err != nil {
		return Result{Status: StatusRunnerError, ExitStatus: ExitUnknown, Error: err.Error()}
	}
	if ws.Exited() {
		return Result{Status: StatusExited, ExitStatus: ws.ExitStatus()}
	}
	if ws.Signaled() {
		return Result{Status: StatusSignalled, ExitStatus: int(ws.Signal())}
	}
	return Result{Status: StatusRunnerError, ExitStatus: ExitUnknown,
		Error: "child neither exited nor signalled"}
}

// waitPid waits for the specific child, retrying only on EINTR.
func waitPid(pid int) (unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &ws, 0, nil)
		if err == unix.EINTR {
			continue
		}
		return ws, err
	}
}

// fdReader adapts a raw pipe descriptor to io.Reader for the output
// collector, folding EINTR into a retry.
type fdReader int

func (fd fdReader) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(int(fd), p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}
