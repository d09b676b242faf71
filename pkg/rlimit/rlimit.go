// Package rlimit prepares POSIX resource limits applied to a spawned
// command through setrlimit-style syscalls on linux.
package rlimit

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/criyle/go-runcmd/pkg/output"
)

// RLimits defines the limits applied to a spawned command. A zero
// field leaves that resource unlimited. DisableCore is set for every
// command spawned by this library so a crashing check never leaves
// core files behind.
type RLimits struct {
	CPU          uint64      // in s
	FileSize     output.Size // in bytes
	AddressSpace output.Size // in bytes
	DisableCore  bool        // set core to 0
}

// RLimit is a single resource limit as consumed by prlimit64.
type RLimit struct {
	// Res is the resource type (e.g. syscall.RLIMIT_CORE)
	Res int
	// Rlim is the limit applied to that resource
	Rlim syscall.Rlimit
}

func getRlimit(cur, max uint64) syscall.Rlimit {
	return syscall.Rlimit{Cur: cur, Max: max}
}

// PrepareRLimit derives the rlimit list for the child process.
func (r *RLimits) PrepareRLimit() []RLimit {
	var ret []RLimit
	if r.CPU > 0 {
		ret = append(ret, RLimit{
			Res:  syscall.RLIMIT_CPU,
			Rlim: getRlimit(r.CPU, r.CPU),
		})
	}
	if r.FileSize > 0 {
		ret = append(ret, RLimit{
			Res:  syscall.RLIMIT_FSIZE,
			Rlim: getRlimit(r.FileSize.Byte(), r.FileSize.Byte()),
		})
	}
	if r.AddressSpace > 0 {
		ret = append(ret, RLimit{
			Res:  syscall.RLIMIT_AS,
			Rlim: getRlimit(r.AddressSpace.Byte(), r.AddressSpace.Byte()),
		})
	}
	if r.DisableCore {
		ret = append(ret, RLimit{
			Res:  syscall.RLIMIT_CORE,
			Rlim: getRlimit(0, 0),
		})
	}
	return ret
}

func (r RLimit) String() string {
	switch r.Res {
	case syscall.RLIMIT_CPU:
		return fmt.Sprintf("CPU[%d s:%d s]", r.Rlim.Cur, r.Rlim.Max)
	case syscall.RLIMIT_FSIZE:
		return fmt.Sprintf("File[%v:%v]", output.Size(r.Rlim.Cur), output.Size(r.Rlim.Max))
	case syscall.RLIMIT_AS:
		return fmt.Sprintf("AddressSpace[%v:%v]", output.Size(r.Rlim.Cur), output.Size(r.Rlim.Max))
	case syscall.RLIMIT_CORE:
		return fmt.Sprintf("Core[%v:%v]", output.Size(r.Rlim.Cur), output.Size(r.Rlim.Max))
	}
	return fmt.Sprintf("Res(%d)[%v:%v]", r.Res, r.Rlim.Cur, r.Rlim.Max)
}

func (r RLimits) String() string {
	var sb strings.Builder
	sb.WriteString("RLimits[")
	for i, rl := range r.PrepareRLimit() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(rl.String())
	}
	sb.WriteString("]")
	return sb.String()
}
