package runcmd

import (
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/criyle/go-runcmd/pkg/pidtable"
	"github.com/criyle/go-runcmd/pkg/state"
)

// timeoutMessage is the fixed diagnostic emitted when a check
// overruns its deadline.
const timeoutMessage = "CRITICAL - Plugin timed out while executing system call\n"

// Watchdog enforces the process-wide execution deadline. When it
// fires it force-kills every child still registered in the pid table,
// writes a fixed diagnostic and terminates the whole process with the
// CRITICAL state. There is no per-command cancellation: a hung check
// must not hang its caller, so the contract is deliberately
// non-recoverable.
//
// Arm and Disarm bracket the monitored work. The firing path only
// reads the lock-free pid table, writes fixed text and calls the
// kill/exit primitives, so it is safe at any point of normal
// execution.
type Watchdog struct {
	mu    sync.Mutex
	timer *time.Timer
	table *pidtable.Table

	// test seams; zero values mean stdout / os.Exit
	out  io.Writer
	exit func(int)
}

// NewWatchdog creates a watchdog over the given pid table; a nil
// table means the process-wide one.
func NewWatchdog(t *pidtable.Table) *Watchdog {
	if t == nil {
		t = Table()
	}
	return &Watchdog{table: t}
}

// Arm starts (or restarts) the deadline.
func (w *Watchdog) Arm(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(d, w.fire)
}

// Disarm stops the deadline. It reports whether the watchdog was
// still pending; false means it already fired (in which case the
// process is exiting) or was never armed.
func (w *Watchdog) Disarm() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer == nil {
		return false
	}
	stopped := w.timer.Stop()
	w.timer = nil
	return stopped
}

func (w *Watchdog) fire() {
	out := w.out
	if out == nil {
		out = os.Stdout
	}
	exit := w.exit
	if exit == nil {
		exit = os.Exit
	}

	io.WriteString(out, timeoutMessage)
	w.table.Kill(syscall.SIGKILL)
	exit(int(state.Critical))
}
