// Package pidtable maps command pipe descriptors to the pids of the
// children that own them. The table has a fixed capacity and every
// slot is a single atomic word, so a watchdog may walk it at any
// moment without locks and can never observe a half-written entry.
package pidtable

import (
	"fmt"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// fallbackOpenMax is used when the descriptor limit cannot be read
const fallbackOpenMax = 256

// OpenMax returns the soft descriptor limit of the process, which
// bounds the largest descriptor the table will ever be asked to hold.
func OpenMax() int {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil || rl.Cur == 0 || rl.Cur > 1<<20 {
		return fallbackOpenMax
	}
	return int(rl.Cur)
}

// Table is a fixed-capacity descriptor-to-pid registry. An entry
// exists only while its child is live and not yet reaped.
type Table struct {
	slots []atomic.Int64
}

// New creates a table holding descriptors in [0, capacity). A
// non-positive capacity sizes the table from the descriptor limit.
func New(capacity int) *Table {
	if capacity <= 0 {
		capacity = OpenMax()
	}
	return &Table{slots: make([]atomic.Int64, capacity)}
}

// Cap returns the table capacity.
func (t *Table) Cap() int {
	return len(t.slots)
}

// Register records fd as owned by pid.
func (t *Table) Register(fd, pid int) error {
	if fd < 0 || fd >= len(t.slots) {
		return fmt.Errorf("pidtable: fd %d out of range [0, %d)", fd, len(t.slots))
	}
	if pid <= 0 {
		return fmt.Errorf("pidtable: invalid pid %d for fd %d", pid, fd)
	}
	t.slots[fd].Store(int64(pid))
	return nil
}

// Get returns the pid registered for fd, if any.
func (t *Table) Get(fd int) (int, bool) {
	if fd < 0 || fd >= len(t.slots) {
		return 0, false
	}
	pid := t.slots[fd].Load()
	return int(pid), pid != 0
}

// Take atomically clears the entry for fd and returns the pid it
// held. A second Take of the same descriptor fails, which keeps a
// concurrent kill or a double reap from signalling a process that is
// already being waited for.
func (t *Table) Take(fd int) (int, bool) {
	if fd < 0 || fd >= len(t.slots) {
		return 0, false
	}
	pid := t.slots[fd].Swap(0)
	return int(pid), pid != 0
}

// Fds returns a snapshot of the registered descriptors.
func (t *Table) Fds() []int {
	var fds []int
	for fd := range t.slots {
		if t.slots[fd].Load() != 0 {
			fds = append(fds, fd)
		}
	}
	return fds
}

// Kill sends sig to every registered child and returns how many were
// signalled. Entries are left in place; the children still have to be
// reaped or the whole process is about to exit anyway.
func (t *Table) Kill(sig syscall.Signal) int {
	n := 0
	for fd := range t.slots {
		if pid := t.slots[fd].Load(); pid != 0 {
			if unix.Kill(int(pid), sig) == nil {
				n++
			}
		}
	}
	return n
}
